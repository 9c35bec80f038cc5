package resource

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Row is a single record exchanged with a backend. Values are plain Go
// scalars, []any slices, or nested map[string]any.
type Row = map[string]any

// CloneRow returns a deep copy of row. Nested maps, slices, and byte
// slices are copied; scalar values are shared.
func CloneRow(row Row) Row {
	if row == nil {
		return nil
	}
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneRows returns a deep copy of rows.
func CloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = CloneRow(row)
	}
	return out
}

// CloneValue deep-copies a single row value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneRow(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// SchemaOf derives a column-to-type map from the first typed value observed
// per column. Columns that never carry a value report "null".
func SchemaOf(rows []Row) map[string]string {
	if len(rows) == 0 {
		return nil
	}
	schema := make(map[string]string)
	for _, row := range rows {
		for col, v := range row {
			if existing, seen := schema[col]; seen && existing != "null" {
				continue
			}
			schema[col] = typeName(v)
		}
	}
	return schema
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case string:
		return "string"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case []byte:
		return "bytes"
	case time.Time:
		return "time"
	case []any, []string:
		return "list"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// IdentityKey renders the identity tuple of a row as a stable string so
// rows can be matched and deduplicated across backends. It fails when the
// row lacks a value for any identity column.
func IdentityKey(row Row, cols []string) (string, error) {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		v, ok := row[col]
		if !ok || v == nil {
			return "", fmt.Errorf("missing identity column %q", col)
		}
		parts = append(parts, fmt.Sprintf("%v", v))
	}
	return strings.Join(parts, "\x1f"), nil
}

// CompareValues orders two column values for watermark comparisons:
// numerically when both render as numbers, lexically otherwise. Nil
// sorts before everything. Codecs and wire formats drift value types
// (int vs float64 vs numeric string), so 2 and "2.0" compare equal.
func CompareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// MaxColumn returns the largest value col carries across rows, or nil
// when no row carries one.
func MaxColumn(rows []Row, col string) any {
	var max any
	for _, row := range rows {
		v, ok := row[col]
		if !ok || v == nil {
			continue
		}
		if max == nil || CompareValues(v, max) > 0 {
			max = v
		}
	}
	return max
}
