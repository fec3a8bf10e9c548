package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"

	"github.com/CDR-Shepard/removal-app/internal/utils"
)

var (
	// ErrMissingColumn is returned when a required column is not in the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmpty is returned when the input has a header but no data rows.
	ErrEmpty = errors.New("dataset has no rows")
	// ErrBadHeader is returned for an empty or repeated header name, which
	// could not be written back unchanged.
	ErrBadHeader = errors.New("invalid header")
)

const utf8BOM = "\ufeff"

// LoadOptions controls CSV parsing.
type LoadOptions struct {
	// Delimiter for CSV. If 0, ',' is used (or '\t' for .tsv files in LoadFile).
	Delimiter rune
	// LazyQuotes relaxes quote handling for hand-edited files.
	LazyQuotes bool
}

// Dataset is an in-memory table whose cells are all kept as strings, so a
// load/write round trip reproduces the input values. Rows are addressed by
// their 0-based position.
type Dataset struct {
	df   dataframe.DataFrame
	name string
}

// Load parses a CSV stream with a mandatory header row. Header names must be
// non-empty and unique after trimming and NFC normalization.
func Load(r io.Reader, opt LoadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = opt.LazyQuotes
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(ErrEmpty, "missing header row")
	}
	header := records[0]
	seen := make(map[string]bool, len(header))
	for i := range header {
		h := header[i]
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = norm.NFC.String(strings.TrimSpace(h))
		if h == "" {
			return nil, errors.Wrapf(ErrBadHeader, "column %d has no name", i+1)
		}
		if seen[h] {
			return nil, errors.Wrapf(ErrBadHeader, "duplicate column %q", h)
		}
		seen[h] = true
		header[i] = h
	}
	if len(records) == 1 {
		return nil, ErrEmpty
	}
	// Pad or trim ragged rows to the header width.
	ncol := len(header)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			records[i] = tmp
		} else if len(rec) > ncol {
			records[i] = rec[:ncol]
		}
	}
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "build dataframe")
	}
	return &Dataset{df: df}, nil
}

// LoadFile opens path and parses it with Load. A .tsv extension selects tab
// as the delimiter unless opt.Delimiter is set.
func LoadFile(path string, opt LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open csv")
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	ds, err := Load(f, opt)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", filepath.Base(path))
	}
	ds.name = filepath.Base(path)
	return ds, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// Name is the base name of the file the dataset was loaded from, if any.
func (d *Dataset) Name() string { return d.name }

// Len returns the number of data rows.
func (d *Dataset) Len() int { return d.df.Nrow() }

// Names returns the column names in header order.
func (d *Dataset) Names() []string { return d.df.Names() }

// HasColumn reports whether name is a column of the dataset.
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// RequireColumns returns ErrMissingColumn for the first name not present.
func (d *Dataset) RequireColumns(names ...string) error {
	for _, n := range names {
		if !d.HasColumn(n) {
			return errors.Wrapf(ErrMissingColumn, "%q", n)
		}
	}
	return nil
}

// Column returns a copy of the values of the named column by position.
func (d *Dataset) Column(name string) ([]string, error) {
	if err := d.RequireColumns(name); err != nil {
		return nil, err
	}
	return d.df.Col(name).Records(), nil
}

// Distinct returns the distinct values of a column in first-occurrence order.
func (d *Dataset) Distinct(name string) ([]string, error) {
	vals, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0)
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Row returns the cells of the row at position i in header order.
func (d *Dataset) Row(i int) []string {
	if i < 0 || i >= d.Len() {
		return nil
	}
	names := d.df.Names()
	out := make([]string, len(names))
	for j := range names {
		out[j] = d.df.Elem(i, j).String()
	}
	return out
}

// Subset returns a new dataset holding the rows at the given positions, in
// the order given. The receiver is not modified.
func (d *Dataset) Subset(positions []int) (*Dataset, error) {
	if len(positions) == 0 {
		names := d.df.Names()
		cols := make([]series.Series, len(names))
		for i, n := range names {
			cols[i] = series.New([]string{}, series.String, n)
		}
		return &Dataset{df: dataframe.New(cols...), name: d.name}, nil
	}
	sub := d.df.Subset(positions)
	if sub.Err != nil {
		return nil, errors.Wrap(sub.Err, "subset")
	}
	return &Dataset{df: sub, name: d.name}, nil
}

// WriteCSV writes the header and all rows as comma-separated values. No
// index column is emitted.
func (d *Dataset) WriteCSV(w io.Writer) error {
	if d.Len() == 0 {
		// gota refuses to write a frame without rows; emit the header alone.
		cw := csv.NewWriter(w)
		if err := cw.Write(d.df.Names()); err != nil {
			return errors.Wrap(err, "write header")
		}
		cw.Flush()
		return errors.Wrap(cw.Error(), "write header")
	}
	return errors.Wrap(d.df.WriteCSV(w), "write csv")
}

// Bytes renders the dataset as CSV.
func (d *Dataset) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the dataset as CSV to path atomically.
func (d *Dataset) WriteFile(path string) error {
	b, err := d.Bytes()
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(path, b)
}
