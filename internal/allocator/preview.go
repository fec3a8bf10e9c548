package allocator

import "github.com/CDR-Shepard/removal-app/internal/dataset"

// PreviewRow describes one combination before any row is sampled.
type PreviewRow struct {
	Key Key
	// Available is the number of rows matching the combination.
	Available int
	// Planned is the number of rows Allocate will remove from it.
	Planned int
}

// Preview is a dry run of Allocate: the counts it would record, without
// choosing rows.
type Preview struct {
	Combinations   int
	PerCombination int
	Rows           []PreviewRow
	// Additional is the count the fallback pass would take.
	Additional int
}

// Estimate computes the preview for the same arguments as Allocate. Combinations
// never share rows, so the planned counts equal the ones Allocate records.
func Estimate(ds *dataset.Dataset, c Criteria, quota int, opt Options) (*Preview, error) {
	m, err := newMatcher(ds, c, quota, opt)
	if err != nil {
		return nil, err
	}
	keep := make([]bool, ds.Len())
	for i := range keep {
		keep[i] = true
	}
	pv := &Preview{Combinations: m.combinations, PerCombination: m.perCombination(quota)}
	planned := 0
	m.each(func(a, b string) {
		avail := len(m.matching(a, b, keep))
		n := max(min(avail, pv.PerCombination, quota-planned), 0)
		planned += n
		pv.Rows = append(pv.Rows, PreviewRow{Key: Key{FileName: a, Value: b}, Available: avail, Planned: n})
	})
	pv.Additional = quota - planned
	return pv, nil
}
