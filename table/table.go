// Package table provides a small columnar table with name-addressed float64
// columns, the tabular input form for fits.
//
// A fit reads its argument, target, weight and sigma columns from a Table by
// name, so observations can be handed over as one value instead of parallel
// slices:
//
//	tbl, err := table.FromColumns(map[string][]float64{
//	    "x": {0, 1, 2},
//	    "y": {0.123, 0.938, 2.123},
//	})
//	result, err := linear.FitTable(tbl, "y", fit.Init{"a": 1.0, "b": 0.0})
package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thoinka/optimazing/pkg/errors"
)

// Table is a collection of equal-length named columns. Columns keep their
// insertion order.
type Table struct {
	names []string
	cols  map[string][]float64
	rows  int
}

// New creates an empty table.
func New() *Table {
	return &Table{cols: make(map[string][]float64)}
}

// FromColumns creates a table from a column map. All columns must have equal
// length. Column order is alphabetical for determinism; build with AddColumn
// to control order explicitly.
func FromColumns(cols map[string][]float64) (*Table, error) {
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)

	t := New()
	for _, name := range names {
		if err := t.AddColumn(name, cols[name]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a named column. The length must match existing columns,
// and the name must be new.
func (t *Table) AddColumn(name string, values []float64) error {
	if _, exists := t.cols[name]; exists {
		return errors.NewValueError("AddColumn", fmt.Sprintf("column %q already present", name))
	}
	if len(t.names) > 0 && len(values) != t.rows {
		return errors.NewDimensionError("AddColumn: "+name, t.rows, len(values))
	}
	t.names = append(t.names, name)
	t.cols[name] = append([]float64{}, values...)
	t.rows = len(values)
	return nil
}

// Column returns the column with the given name. A missing column is an
// InputResolutionError naming the available columns.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.cols[name]
	if !ok {
		return nil, errors.NewInputResolutionError("Column", name,
			fmt.Sprintf("not found; table has columns %s", strings.Join(t.names, ", ")))
	}
	return col, nil
}

// HasColumn reports whether a column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Names returns the column names in insertion order.
func (t *Table) Names() []string {
	return append([]string{}, t.names...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}
