package allocator

import (
	"github.com/pkg/errors"

	"github.com/CDR-Shepard/removal-app/internal/dataset"
)

// matcher holds the two dimension columns of one allocation request.
type matcher struct {
	dimA, dimB   []string
	fileNames    []string
	values       []string
	combinations int
}

func newMatcher(ds *dataset.Dataset, c Criteria, quota int, opt Options) (*matcher, error) {
	if ds == nil {
		return nil, errors.New("nil dataset")
	}
	dim := opt.dimension()
	if c.Column == dim {
		return nil, errors.Wrapf(ErrSameColumn, "%q", c.Column)
	}
	if err := ds.RequireColumns(dim, c.Column); err != nil {
		return nil, err
	}
	if quota < 0 || quota > ds.Len() {
		return nil, errors.Wrapf(ErrInvalidQuota, "%d not in [0, %d]", quota, ds.Len())
	}
	a, err := ds.Column(dim)
	if err != nil {
		return nil, err
	}
	b, err := ds.Column(c.Column)
	if err != nil {
		return nil, err
	}
	m := &matcher{
		dimA:      a,
		dimB:      b,
		fileNames: dedupe(c.FileNames),
		values:    dedupe(c.Values),
	}
	m.combinations = len(m.fileNames) * len(m.values)
	return m, nil
}

// perCombination is the even share of quota; the division remainder is left
// to the additional pass.
func (m *matcher) perCombination(quota int) int {
	if m.combinations == 0 {
		return 0
	}
	return quota / m.combinations
}

// each visits combinations with file names as the outer loop.
func (m *matcher) each(fn func(a, b string)) {
	for _, a := range m.fileNames {
		for _, b := range m.values {
			fn(a, b)
		}
	}
}

// matching returns the still-kept positions whose dimension values are (a, b).
func (m *matcher) matching(a, b string, keep []bool) []int {
	var out []int
	for i := range m.dimA {
		if keep[i] && m.dimA[i] == a && m.dimB[i] == b {
			out = append(out, i)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
