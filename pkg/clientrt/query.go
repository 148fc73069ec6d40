package clientrt

import (
	"net/url"
	"reflect"
	"strconv"
)

// Query accumulates query parameters for a single call.
type Query struct {
	values url.Values
}

func NewQuery() *Query { return &Query{values: url.Values{}} }

// Add includes v only when it is truthy. Slices contribute one entry per
// element.
func (q *Query) Add(name string, v any) {
	if !Truthy(v) {
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < rv.Len(); i++ {
			q.values.Add(name, Str(rv.Index(i).Interface()))
		}
		return
	}
	q.values.Add(name, Str(v))
}

// Bool includes any supplied boolean, false included.
func (q *Query) Bool(name string, v *bool) {
	if v == nil {
		return
	}
	q.values.Add(name, strconv.FormatBool(*v))
}

// Encode returns "" when no parameter was added, else "?" followed by the
// encoded parameters in key order.
func (q *Query) Encode() string {
	if len(q.values) == 0 {
		return ""
	}
	return "?" + q.values.Encode()
}
