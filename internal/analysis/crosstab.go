package analysis

import (
	"fmt"
	"strings"

	"github.com/CDR-Shepard/removal-app/internal/dataset"
)

// CrossTab counts rows per (dimension value, column value) pair for the
// selected values only.
type CrossTab struct {
	Dimension string
	Column    string
	FileNames []string
	Values    []string
	// Counts[i][j] is the number of rows with FileNames[i] and Values[j].
	Counts [][]int
}

// NewCrossTab builds the table. Empty selections mean every distinct value of
// the respective column, in first-occurrence order.
func NewCrossTab(ds *dataset.Dataset, dimension, column string, fileNames, values []string) (*CrossTab, error) {
	dimVals, err := ds.Column(dimension)
	if err != nil {
		return nil, err
	}
	colVals, err := ds.Column(column)
	if err != nil {
		return nil, err
	}
	if len(fileNames) == 0 {
		if fileNames, err = ds.Distinct(dimension); err != nil {
			return nil, err
		}
	}
	if len(values) == 0 {
		if values, err = ds.Distinct(column); err != nil {
			return nil, err
		}
	}
	rowIdx := make(map[string]int, len(fileNames))
	for i, v := range fileNames {
		rowIdx[v] = i
	}
	colIdx := make(map[string]int, len(values))
	for j, v := range values {
		colIdx[v] = j
	}
	ct := &CrossTab{Dimension: dimension, Column: column, FileNames: fileNames, Values: values}
	ct.Counts = make([][]int, len(fileNames))
	for i := range ct.Counts {
		ct.Counts[i] = make([]int, len(values))
	}
	for k := range dimVals {
		i, ok := rowIdx[dimVals[k]]
		if !ok {
			continue
		}
		j, ok := colIdx[colVals[k]]
		if !ok {
			continue
		}
		ct.Counts[i][j]++
	}
	return ct, nil
}

// Count returns the number of rows for a pair, 0 if either value is not selected.
func (ct *CrossTab) Count(fileName, value string) int {
	for i, a := range ct.FileNames {
		if a != fileName {
			continue
		}
		for j, b := range ct.Values {
			if b == value {
				return ct.Counts[i][j]
			}
		}
	}
	return 0
}

// Markdown renders the table with the dimension values as rows.
func (ct *CrossTab) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[COMBINATIONS: %s x %s]\n", safeName(ct.Dimension), safeName(ct.Column)))
	b.WriteString("| ")
	b.WriteString(safeName(ct.Dimension))
	for _, v := range ct.Values {
		b.WriteString(" | ")
		b.WriteString(safeVal(v))
	}
	b.WriteString(" |\n|---")
	for range ct.Values {
		b.WriteString("|---")
	}
	b.WriteString("|\n")
	for i, a := range ct.FileNames {
		b.WriteString("| ")
		b.WriteString(safeVal(a))
		for j := range ct.Values {
			b.WriteString(fmt.Sprintf(" | %d", ct.Counts[i][j]))
		}
		b.WriteString(" |\n")
	}
	return b.String()
}
