package allocator

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/CDR-Shepard/removal-app/internal/dataset"
)

// zeroSource makes rand.Intn always return 0, so sampling takes the first
// rows of each pool.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func load(t *testing.T, rows ...string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(strings.NewReader("file name,region,id\n"+strings.Join(rows, "\n")+"\n"), dataset.LoadOptions{})
	require.NoError(t, err)
	return ds
}

// evenFixture has 5 rows of A and 5 of B; region X appears 6 times, Y 4 times.
func evenFixture(t *testing.T) *dataset.Dataset {
	return load(t,
		"A,X,0", "A,X,1", "A,X,2", "A,Y,3", "A,Y,4",
		"B,X,5", "B,X,6", "B,X,7", "B,Y,8", "B,Y,9",
	)
}

func ids(t *testing.T, ds *dataset.Dataset) []string {
	t.Helper()
	v, err := ds.Column("id")
	require.NoError(t, err)
	return v
}

func TestAllocateEvenSplit(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, 4, Options{})
	require.NoError(t, err)

	require.Equal(t, 4, res.Plan.Total())
	require.Equal(t, 4, res.Plan.Len())
	require.Equal(t, 0, res.Plan.Additional())
	for _, a := range []string{"A", "B"} {
		for _, b := range []string{"X", "Y"} {
			n, ok := res.Plan.Lookup(a, b)
			require.True(t, ok, "%s/%s", a, b)
			require.Equal(t, 1, n)
		}
	}
	require.Equal(t, 6, res.Retained.Len())
	require.Len(t, res.Removed, 4)
}

func TestAllocateEntryOrderFollowsSelectors(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"B", "A"}, Values: []string{"Y", "X"}}, 4, Options{})
	require.NoError(t, err)

	var got []string
	for _, e := range res.Plan.Entries() {
		got = append(got, e.Key.String())
	}
	require.Equal(t, []string{"(B, Y)", "(B, X)", "(A, Y)", "(A, X)"}, got)
}

func TestAllocateExactSelectionWithInjectedSource(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, 4, Options{Source: zeroSource{}})
	require.NoError(t, err)

	// First matching row of every combination goes.
	require.Equal(t, []int{0, 3, 5, 8}, res.Removed)
	require.Equal(t, []string{"1", "2", "4", "6", "7", "9"}, ids(t, res.Retained))
}

func TestAllocateShortCombinationsFallToAdditional(t *testing.T) {
	ds := load(t,
		"A,X,0", "B,Y,1",
		"C,Z,2", "C,Z,3", "C,Z,4", "C,Z,5", "C,Z,6", "C,Z,7", "C,Z,8", "C,Z,9",
	)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, 4, Options{})
	require.NoError(t, err)

	n, ok := res.Plan.Lookup("A", "X")
	require.True(t, ok)
	require.Equal(t, 1, n)
	n, ok = res.Plan.Lookup("B", "Y")
	require.True(t, ok)
	require.Equal(t, 1, n)
	_, ok = res.Plan.Lookup("A", "Y")
	require.False(t, ok, "empty combinations are not recorded")
	_, ok = res.Plan.Lookup("B", "X")
	require.False(t, ok)

	require.Equal(t, 2, res.Plan.Additional())
	require.Equal(t, 3, res.Plan.Len())
	require.Equal(t, 6, res.Retained.Len())

	entries := res.Plan.Entries()
	last := entries[len(entries)-1]
	require.True(t, last.Key.Additional)
	require.Equal(t, AdditionalLabel, last.Key.String())

	// Both combination rows are gone; the other two come from the C rows.
	require.Contains(t, res.Removed, 0)
	require.Contains(t, res.Removed, 1)
}

func TestAllocateEmptySelectorsUseAdditionalOnly(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", Values: []string{"X"}}, 3, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Plan.Len())
	require.Equal(t, 3, res.Plan.Additional())
	require.Equal(t, 7, res.Retained.Len())
}

func TestAllocateRemainderGoesToAdditional(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, 9, Options{})
	require.NoError(t, err)

	// per combination = 2, every combination has >= 2 rows.
	for _, a := range []string{"A", "B"} {
		for _, b := range []string{"X", "Y"} {
			n, _ := res.Plan.Lookup(a, b)
			require.Equal(t, 2, n)
		}
	}
	require.Equal(t, 1, res.Plan.Additional())
	require.Equal(t, 1, res.Retained.Len())
}

func TestAllocateQuotaBelowCombinationCount(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, 3, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Plan.Len())
	require.Equal(t, 3, res.Plan.Additional())
}

func TestAllocateZeroQuota(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A"}, Values: []string{"X"}}, 0, Options{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Plan.Len())
	require.Empty(t, res.Removed)

	before, err := ds.Bytes()
	require.NoError(t, err)
	after, err := res.Retained.Bytes()
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestAllocateWholeDataset(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, ds.Len(), Options{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Retained.Len())
	require.Equal(t, ds.Len(), res.Plan.Total())
}

func TestAllocateUnknownSelectorValues(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "nope"}, Values: []string{"X", "Q"}}, 4, Options{})
	require.NoError(t, err)
	n, ok := res.Plan.Lookup("A", "X")
	require.True(t, ok)
	require.Equal(t, 1, n)
	require.Equal(t, 3, res.Plan.Additional())
}

func TestAllocateDuplicateSelectorsCountOnce(t *testing.T) {
	ds := evenFixture(t)
	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"A", "A"}, Values: []string{"X"}}, 2, Options{})
	require.NoError(t, err)
	n, ok := res.Plan.Lookup("A", "X")
	require.True(t, ok)
	require.Equal(t, 2, n)
	require.Equal(t, 1, res.Plan.Len())
}

func TestAllocateDeterministic(t *testing.T) {
	ds := evenFixture(t)
	c := Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}

	first, err := Allocate(ds, c, 7, Options{})
	require.NoError(t, err)
	second, err := Allocate(ds, c, 7, Options{})
	require.NoError(t, err)
	require.Equal(t, first.Removed, second.Removed)
	require.Equal(t, first.Plan.Entries(), second.Plan.Entries())

	a, err := Allocate(ds, c, 7, Options{Source: rand.NewSource(42)})
	require.NoError(t, err)
	b, err := Allocate(ds, c, 7, Options{Source: rand.NewSource(42)})
	require.NoError(t, err)
	require.Equal(t, a.Removed, b.Removed)

	ab, err := a.Retained.Bytes()
	require.NoError(t, err)
	bb, err := b.Retained.Bytes()
	require.NoError(t, err)
	require.Equal(t, string(ab), string(bb))
}

func TestAllocateCustomDimensionColumn(t *testing.T) {
	ds, err := dataset.Load(strings.NewReader("speaker,region\ns1,X\ns1,X\ns2,X\n"), dataset.LoadOptions{})
	require.NoError(t, err)

	_, err = Allocate(ds, Criteria{Column: "region"}, 1, Options{})
	require.True(t, errors.Is(err, dataset.ErrMissingColumn))

	res, err := Allocate(ds, Criteria{Column: "region", FileNames: []string{"s1"}, Values: []string{"X"}}, 1, Options{DimensionColumn: "speaker"})
	require.NoError(t, err)
	n, ok := res.Plan.Lookup("s1", "X")
	require.True(t, ok)
	require.Equal(t, 1, n)
}

func TestAllocateErrors(t *testing.T) {
	ds := evenFixture(t)

	_, err := Allocate(ds, Criteria{Column: "missing"}, 1, Options{})
	require.True(t, errors.Is(err, dataset.ErrMissingColumn))

	_, err = Allocate(ds, Criteria{Column: FileNameColumn}, 1, Options{})
	require.True(t, errors.Is(err, ErrSameColumn))

	_, err = Allocate(ds, Criteria{Column: "region"}, -1, Options{})
	require.True(t, errors.Is(err, ErrInvalidQuota))

	_, err = Allocate(ds, Criteria{Column: "region"}, ds.Len()+1, Options{})
	require.True(t, errors.Is(err, ErrInvalidQuota))

	_, err = Allocate(nil, Criteria{Column: "region"}, 0, Options{})
	require.Error(t, err)
}

// TestAllocateProperties checks the quota invariants over generated tables.
func TestAllocateProperties(t *testing.T) {
	gen := rand.New(rand.NewSource(7))
	fileNames := []string{"a", "b", "c", "d"}
	regions := []string{"n", "s", "e", "w", "x"}

	for round := 0; round < 40; round++ {
		rows := 1 + gen.Intn(60)
		lines := make([]string, rows)
		for i := range lines {
			lines[i] = fmt.Sprintf("%s,%s,%d", fileNames[gen.Intn(len(fileNames))], regions[gen.Intn(len(regions))], i)
		}
		ds := load(t, lines...)
		lo := gen.Intn(2)
		hi := lo + gen.Intn(len(regions)-lo+1)
		c := Criteria{
			Column:    "region",
			FileNames: fileNames[:gen.Intn(len(fileNames)+1)],
			Values:    regions[lo:hi],
		}
		if len(c.Values) > 0 && gen.Intn(2) == 0 {
			c.Values = c.Values[:1]
		}
		quota := gen.Intn(rows + 1)

		res, err := Allocate(ds, c, quota, Options{Source: rand.NewSource(int64(round))})
		require.NoError(t, err)
		require.Equal(t, quota, res.Plan.Total(), "round %d", round)
		require.Equal(t, rows-quota, res.Retained.Len(), "round %d", round)
		require.Len(t, res.Removed, quota)

		seen := map[int]bool{}
		for _, i := range res.Removed {
			require.False(t, seen[i], "row %d removed twice", i)
			seen[i] = true
		}

		// Retained rows keep their original relative order.
		kept := ids(t, res.Retained)
		want := []string{}
		for i := 0; i < rows; i++ {
			if !seen[i] {
				want = append(want, fmt.Sprintf("%d", i))
			}
		}
		require.Equal(t, want, kept)

		// No combination gives up more than its share or its rows.
		pv, err := Estimate(ds, c, quota, Options{})
		require.NoError(t, err)
		for _, row := range pv.Rows {
			got, _ := res.Plan.Lookup(row.Key.FileName, row.Key.Value)
			require.Equal(t, row.Planned, got)
			require.LessOrEqual(t, got, row.Available)
			require.LessOrEqual(t, got, pv.PerCombination)
		}
		require.Equal(t, pv.Additional, res.Plan.Additional())
	}
}

func TestEstimate(t *testing.T) {
	ds := load(t,
		"A,X,0", "A,X,1", "A,X,2",
		"B,Y,3",
		"C,Z,4", "C,Z,5",
	)
	pv, err := Estimate(ds, Criteria{Column: "region", FileNames: []string{"A", "B"}, Values: []string{"X", "Y"}}, 5, Options{})
	require.NoError(t, err)
	require.Equal(t, 4, pv.Combinations)
	require.Equal(t, 1, pv.PerCombination)
	require.Len(t, pv.Rows, 4)
	require.Equal(t, PreviewRow{Key: Key{FileName: "A", Value: "X"}, Available: 3, Planned: 1}, pv.Rows[0])
	require.Equal(t, PreviewRow{Key: Key{FileName: "A", Value: "Y"}, Available: 0, Planned: 0}, pv.Rows[1])
	require.Equal(t, PreviewRow{Key: Key{FileName: "B", Value: "Y"}, Available: 1, Planned: 1}, pv.Rows[3])
	require.Equal(t, 3, pv.Additional)
}
