package clientrt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"sort"
	"strconv"

	"github.com/gorilla/schema"
)

// formKey is the single association key used for non-composite form bodies.
const formKey = "value"

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	return d
}()

// FinalizeJSON encodes the output of a json serializer for the wire.
func FinalizeJSON(obj any) ([]byte, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("clientrt: encode json: %w", err)
	}
	return data, nil
}

// FinalizeForm url-encodes the output of a form serializer. Nested
// associations flatten to dotted keys and sequences of associations to
// indexed keys ("items.0.name"); sequences of scalars repeat their key.
func FinalizeForm(obj any) ([]byte, error) {
	values := url.Values{}
	switch x := obj.(type) {
	case nil:
	case map[string]any:
		flattenForm("", x, values)
	default:
		flattenForm(formKey, x, values)
	}
	return []byte(values.Encode()), nil
}

func flattenForm(prefix string, v any, values url.Values) {
	switch x := v.(type) {
	case nil:
		return
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenForm(joinKey(prefix, k), x[k], values)
		}
		return
	case []any:
		for i, item := range x {
			flattenForm(joinKey(prefix, strconv.Itoa(i)), item, values)
		}
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
		for i := 0; i < rv.Len(); i++ {
			values.Add(prefix, Str(rv.Index(i).Interface()))
		}
		return
	}
	values.Add(prefix, Str(v))
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// DecodeForm decodes a url-encoded payload into dst, which must point to a
// struct whose fields carry form tags.
func DecodeForm(obj any, dst any) error {
	values, err := FormValues(obj)
	if err != nil {
		return err
	}
	if err := formDecoder.Decode(dst, values); err != nil {
		return fmt.Errorf("clientrt: decode form: %w", err)
	}
	return nil
}

// FormValues parses raw form text.
func FormValues(obj any) (url.Values, error) {
	switch x := obj.(type) {
	case url.Values:
		return x, nil
	case []byte:
		return url.ParseQuery(string(x))
	case string:
		return url.ParseQuery(x)
	default:
		return nil, fmt.Errorf("clientrt: cannot read form data from %T", obj)
	}
}

// FormObject decodes form text into an association. Keys given once map to
// their value, repeated keys to every value in order.
func FormObject(obj any) (map[string]any, error) {
	if obj == nil {
		return nil, nil
	}
	values, err := FormValues(obj)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out, nil
}

// JSONValue decodes raw wire text ([]byte or json.RawMessage) and returns any
// other value unchanged. Numbers decode as json.Number.
func JSONValue(obj any) (any, error) {
	var raw []byte
	switch x := obj.(type) {
	case []byte:
		raw = x
	case json.RawMessage:
		raw = x
	default:
		return obj, nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("clientrt: decode json: %w", err)
	}
	return v, nil
}

// JSONObject is JSONValue narrowed to an object.
func JSONObject(obj any) (map[string]any, error) {
	v, err := JSONValue(obj)
	if err != nil || v == nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("clientrt: expected a JSON object, got %T", v)
	}
	return m, nil
}

// JSONArray is JSONValue narrowed to an array. Typed slices are accepted so
// serializer output can be decoded without a wire round trip.
func JSONArray(obj any) ([]any, error) {
	v, err := JSONValue(obj)
	if err != nil || v == nil {
		return nil, err
	}
	return toAnySlice(v)
}

func toAnySlice(v any) ([]any, error) {
	if items, ok := v.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("clientrt: expected an array, got %T", v)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, nil
}

// Convert coerces a decoded JSON or form value into T. A nil value yields the
// zero value.
func Convert[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	var (
		out any
		err error
	)
	switch any(zero).(type) {
	case int8:
		out, err = intOf[int8](v)
	case int16:
		out, err = intOf[int16](v)
	case int32:
		out, err = intOf[int32](v)
	case int64:
		out, err = intOf[int64](v)
	case float64:
		out, err = floatOf(v)
	case bool:
		out, err = boolOf(v)
	case string:
		out, err = stringOf(v)
	case []byte:
		out, err = bytesOf(v)
	default:
		return zero, fmt.Errorf("clientrt: cannot convert %T to %T", v, zero)
	}
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// ConvertSlice applies Convert to every element of a decoded sequence.
func ConvertSlice[T any](v any) ([]T, error) {
	if v == nil {
		return nil, nil
	}
	if typed, ok := v.([]T); ok {
		return typed, nil
	}
	items, err := toAnySlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for i, item := range items {
		conv, err := Convert[T](item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, conv)
	}
	return out, nil
}

func intOf[T int8 | int16 | int32 | int64](v any) (T, error) {
	n, err := int64Of(v)
	if err != nil {
		return 0, err
	}
	r := T(n)
	if int64(r) != n {
		return 0, fmt.Errorf("clientrt: %d overflows %T", n, r)
	}
	return r, nil
}

func int64Of(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("clientrt: invalid number %q", x)
		}
		return integral(f)
	case float64:
		return integral(x)
	case float32:
		return integral(float64(x))
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("clientrt: invalid integer %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("clientrt: expected an integer, got %T", v)
	}
}

func integral(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("clientrt: %v is not an integer", f)
	}
	// 2^63 is the first float64 past MaxInt64.
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("clientrt: %v overflows int64", f)
	}
	return int64(f), nil
}

func floatOf(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("clientrt: invalid number %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("clientrt: expected a number, got %T", v)
	}
}

func boolOf(v any) (bool, error) {
	if s, ok := v.(string); ok {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return false, fmt.Errorf("clientrt: invalid boolean %q", s)
		}
		return b, nil
	}
	return false, fmt.Errorf("clientrt: expected a boolean, got %T", v)
}

func stringOf(v any) (string, error) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), nil
	case []byte:
		return string(x), nil
	default:
		return "", fmt.Errorf("clientrt: expected a string, got %T", v)
	}
}

func bytesOf(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("clientrt: expected base64 text, got %T", v)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("clientrt: invalid base64: %w", err)
	}
	return b, nil
}
