package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Table is a parsed tabular dataset. Cells are kept as text and converted
// to numbers per column on demand.
type Table struct {
	Columns []string
	Rows    [][]string
}

func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv data is empty")
		}
		return nil, fmt.Errorf("error reading csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv data has a header but no rows")
	}

	return &Table{Columns: columns, Rows: rows}, nil
}

func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("error writing csv rows: %w", err)
	}
	return nil
}

func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column as floats. Empty cells are
// missing readings and come back as NaN.
func (t *Table) Column(name string) ([]float64, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column '%s' not found", name)
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		cell := strings.TrimSpace(row[idx])
		if cell == "" {
			values[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d column '%s': invalid number '%s'", i+1, name, cell)
		}
		values[i] = v
	}
	return values, nil
}

// Observed returns the named column without its missing readings.
func (t *Table) Observed(name string) ([]float64, error) {
	values, err := t.Column(name)
	if err != nil {
		return nil, err
	}

	observed := values[:0]
	for _, v := range values {
		if !math.IsNaN(v) {
			observed = append(observed, v)
		}
	}
	return observed, nil
}

// NumericColumns lists, in header order, the columns with at least one
// reading where every non-empty cell parses as a number.
func (t *Table) NumericColumns() []string {
	var numeric []string
	for idx, col := range t.Columns {
		ok, seen := true, false
		for _, row := range t.Rows {
			cell := strings.TrimSpace(row[idx])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
			seen = true
		}
		if ok && seen {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

// AppendColumn returns a copy of the table with an extra column.
func (t *Table) AppendColumn(name string, values []string) (*Table, error) {
	if len(values) != len(t.Rows) {
		return nil, fmt.Errorf("column '%s' has %d values, table has %d rows", name, len(values), len(t.Rows))
	}

	out := &Table{
		Columns: append(append([]string{}, t.Columns...), name),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append(append([]string{}, row...), values[i])
	}
	return out, nil
}
