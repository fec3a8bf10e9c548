// Package allocator removes a quota of rows from a dataset, spread evenly over
// the combinations of two categorical columns.
//
// The combination space is every pair of a selected value of the dimension
// column ("file name" by default) and a selected value of a second column.
// Each combination may lose at most floor(quota / combinations) rows; rows
// still owed after the main pass are drawn from everything that remains and
// reported under the "additional" key.
package allocator

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"

	"github.com/CDR-Shepard/removal-app/internal/dataset"
)

const (
	// FileNameColumn is the fixed first dimension.
	FileNameColumn = "file name"
	// DefaultSeed seeds the sampler when no Source is supplied.
	DefaultSeed int64 = 1
)

var (
	// ErrInvalidQuota is returned when the quota is negative or larger than the dataset.
	ErrInvalidQuota = errors.New("invalid removal quota")
	// ErrSameColumn is returned when the second column is the dimension column itself.
	ErrSameColumn = errors.New("second column must differ from the dimension column")
)

// Criteria selects the combinations to remove rows from.
type Criteria struct {
	// Column is the user-chosen second column.
	Column string
	// FileNames are the selected values of the dimension column, in priority order.
	FileNames []string
	// Values are the selected values of Column, in priority order.
	Values []string
}

// Options tunes an allocation. The zero value is ready to use.
type Options struct {
	// Source drives row sampling. Nil means rand.NewSource(DefaultSeed).
	Source rand.Source
	// DimensionColumn overrides FileNameColumn.
	DimensionColumn string
}

func (o Options) dimension() string {
	if o.DimensionColumn != "" {
		return o.DimensionColumn
	}
	return FileNameColumn
}

func (o Options) rng() *rand.Rand {
	if o.Source != nil {
		return rand.New(o.Source)
	}
	return rand.New(rand.NewSource(DefaultSeed))
}

// Result is the outcome of Allocate.
type Result struct {
	// Retained holds the rows that were kept, in their original relative order.
	Retained *dataset.Dataset
	// Removed lists the removed positions of the input, ascending.
	Removed []int
	Plan    *Plan
}

// Allocate removes exactly quota rows from ds and reports where they came
// from. ds is not modified.
func Allocate(ds *dataset.Dataset, c Criteria, quota int, opt Options) (*Result, error) {
	m, err := newMatcher(ds, c, quota, opt)
	if err != nil {
		return nil, err
	}
	rng := opt.rng()
	n := ds.Len()
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}
	plan := &Plan{}
	removed := 0

	per := m.perCombination(quota)
	m.each(func(a, b string) {
		rows := m.matching(a, b, keep)
		count := min(len(rows), per, quota-removed)
		if count <= 0 {
			return
		}
		for _, i := range sample(rng, rows, count) {
			keep[i] = false
		}
		removed += count
		plan.add(Key{FileName: a, Value: b}, count)
	})

	if removed < quota {
		pool := make([]int, 0, n-removed)
		for i, k := range keep {
			if k {
				pool = append(pool, i)
			}
		}
		extra := quota - removed
		for _, i := range sample(rng, pool, extra) {
			keep[i] = false
		}
		removed += extra
		plan.add(Key{Additional: true}, extra)
	}

	retained := make([]int, 0, n-removed)
	dropped := make([]int, 0, removed)
	for i, k := range keep {
		if k {
			retained = append(retained, i)
		} else {
			dropped = append(dropped, i)
		}
	}
	out, err := ds.Subset(retained)
	if err != nil {
		return nil, errors.Wrap(err, "filter retained rows")
	}
	return &Result{Retained: out, Removed: dropped, Plan: plan}, nil
}

// sample draws n distinct elements of pool without replacement and returns
// them sorted. pool is not modified.
func sample(rng *rand.Rand, pool []int, n int) []int {
	p := make([]int, len(pool))
	copy(p, pool)
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(p)-i)
		p[i], p[j] = p[j], p[i]
	}
	out := p[:n]
	sort.Ints(out)
	return out
}
