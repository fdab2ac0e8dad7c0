package spreadsheet

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Merge appends one column per result key to t. Leading keys come first (only
// those that occur in some result), then any other keys in first-seen order,
// then trailing keys. results[i] fills row i; absent keys become empty cells.
func Merge(t *Table, results []map[string]any, leading []string, trailing ...string) (*Table, error) {
	headers := resultHeaders(results, leading, trailing)

	extra := make([][]string, len(results))
	for i, res := range results {
		cells := make([]string, len(headers))
		for j, h := range headers {
			if v, ok := res[h]; ok {
				cells[j] = FormatValue(v)
			}
		}
		extra[i] = cells
	}
	return t.AppendColumns(headers, extra)
}

func resultHeaders(results []map[string]any, leading, trailing []string) []string {
	seen := make(map[string]bool)
	for _, res := range results {
		for k := range res {
			seen[k] = true
		}
	}

	placed := make(map[string]bool, len(leading)+len(trailing))
	for _, k := range leading {
		placed[k] = true
	}
	for _, k := range trailing {
		placed[k] = true
	}

	var headers []string
	for _, k := range leading {
		if seen[k] {
			headers = append(headers, k)
		}
	}

	// keys first seen in the same row are sorted
	extraSeen := make(map[string]bool)
	for _, res := range results {
		var fresh []string
		for k := range res {
			if !placed[k] && !extraSeen[k] {
				fresh = append(fresh, k)
			}
		}
		slices.Sort(fresh)
		for _, k := range fresh {
			extraSeen[k] = true
			headers = append(headers, k)
		}
	}

	for _, k := range trailing {
		if seen[k] {
			headers = append(headers, k)
		}
	}
	return headers
}

// FormatValue renders a decoded JSON value as cell text. nil is empty, lists
// are joined with ", " and objects are written as compact JSON.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
