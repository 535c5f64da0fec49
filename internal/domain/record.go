package domain

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Record maps column names to cleaned values in column order.
type Record = orderedmap.OrderedMap[string, any]

func NewRecord(columns []string, values []any) *Record {
	r := orderedmap.New[string, any](len(columns))
	for i, c := range columns {
		var v any
		if i < len(values) {
			v = values[i]
		}
		r.Set(c, v)
	}
	return r
}
