package model

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// Frame is a column oriented table. Every column holds the same number of
// rows, and a frame always holds at least one row.
type Frame struct {
	columns []string
	data    map[string][]any
	rows    int
}

// NewFrame builds a frame from a column batch. Column order is sorted by name
// since maps carry none.
func NewFrame(data map[string][]any) (*Frame, error) {
	columns := make([]string, 0, len(data))
	for name := range data {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return newFrame(columns, data)
}

// FrameFromVector builds a single row frame by assigning values to columns
// by position.
func FrameFromVector(columns []string, values []any) (*Frame, error) {
	if len(values) != len(columns) {
		return nil, shapeErr("", "expected %d features, got %d", len(columns), len(values))
	}
	data := make(map[string][]any, len(columns))
	for i, name := range columns {
		data[name] = []any{values[i]}
	}
	return newFrame(columns, data)
}

func newFrame(columns []string, data map[string][]any) (*Frame, error) {
	if len(columns) == 0 {
		return nil, shapeErr("", "no columns")
	}
	rows := -1
	for _, name := range columns {
		values := data[name]
		if rows == -1 {
			rows = len(values)
			continue
		}
		if len(values) != rows {
			return nil, shapeErr(name, "has %d rows, expected %d", len(values), rows)
		}
	}
	if rows == 0 {
		return nil, shapeErr("", "no rows")
	}
	for _, name := range columns {
		for _, v := range data[name] {
			if !isScalar(v) {
				return nil, typeErr(name, "unsupported value %v", v)
			}
		}
	}
	return &Frame{columns: columns, data: data, rows: rows}, nil
}

func (f *Frame) Len() int { return f.rows }

func (f *Frame) Columns() []string {
	return append([]string(nil), f.columns...)
}

func (f *Frame) Column(name string) ([]any, bool) {
	values, ok := f.data[name]
	return values, ok
}

// Head returns the first n rows. The returned frame shares storage with f.
func (f *Frame) Head(n int) *Frame {
	if n >= f.rows || n <= 0 {
		return f
	}
	return f.slice(0, n)
}

// Tail returns the last n rows. The returned frame shares storage with f.
func (f *Frame) Tail(n int) *Frame {
	if n >= f.rows || n <= 0 {
		return f
	}
	return f.slice(f.rows-n, f.rows)
}

func (f *Frame) slice(from, to int) *Frame {
	data := make(map[string][]any, len(f.columns))
	for _, name := range f.columns {
		data[name] = f.data[name][from:to]
	}
	return &Frame{columns: f.columns, data: data, rows: to - from}
}

// SplitLabels removes column from the frame and returns its values as integer
// class labels.
func (f *Frame) SplitLabels(column string) (*Frame, []int, error) {
	values, ok := f.data[column]
	if !ok {
		return nil, nil, shapeErr(column, "missing label column")
	}
	labels := make([]int, len(values))
	for i, v := range values {
		x, missing, err := numeric(column, v)
		if err != nil {
			return nil, nil, err
		}
		if missing || x != math.Trunc(x) {
			return nil, nil, typeErr(column, "row %d: label %v is not an integer", i, v)
		}
		labels[i] = int(x)
	}

	columns := make([]string, 0, len(f.columns)-1)
	data := make(map[string][]any, len(f.columns)-1)
	for _, name := range f.columns {
		if name == column {
			continue
		}
		columns = append(columns, name)
		data[name] = f.data[name]
	}
	if len(columns) == 0 {
		return nil, nil, shapeErr("", "no feature columns besides %q", column)
	}
	return &Frame{columns: columns, data: data, rows: f.rows}, labels, nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case nil, float64, float32, int, int32, int64, json.Number, string:
		return true
	}
	return false
}

// numeric reads v as a number. JSON null is reported as missing.
func numeric(column string, v any) (float64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, true, nil
	case float64:
		if math.IsNaN(x) {
			return 0, true, nil
		}
		return x, false, nil
	case float32:
		return float64(x), false, nil
	case int:
		return float64(x), false, nil
	case int32:
		return float64(x), false, nil
	case int64:
		return float64(x), false, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false, typeErr(column, "invalid number %q", x.String())
		}
		return f, false, nil
	case string:
		return 0, false, typeErr(column, "expected a number, got string %q", x)
	}
	return 0, false, typeErr(column, "unsupported value %v", v)
}

// categorical reads v as a category. Numbers match categories by their
// shortest decimal form, so 3 matches "3".
func categorical(column string, v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", true, nil
	case string:
		return x, false, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String(), false, nil
		}
		return formatNumber(f), false, nil
	}
	f, missing, err := numeric(column, v)
	if err != nil || missing {
		return "", missing, err
	}
	return formatNumber(f), false, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
