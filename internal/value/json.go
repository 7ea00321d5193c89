package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/valyala/fastjson"
)

// JSON renders v as canonical JSON: map keys sorted, no HTML escaping,
// no trailing newline.
func JSON(v Value) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ToAny(v)); err != nil {
		// Only non-finite numbers can fail here.
		return fmt.Sprintf("%v", ToAny(v))
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// ToAny converts v to the plain Go shapes produced by encoding/json:
// nil, bool, float64, string, []any and map[string]any.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(x)
	case Number:
		return float64(x)
	case Text:
		return string(x)
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = ToAny(e)
		}
		return out
	case Map:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = ToAny(e)
		}
		return out
	default:
		return nil
	}
}

// FromAny converts decoded Go data back into a Value. It accepts the
// encoding/json shapes plus the integer kinds, typed slices and
// string-keyed maps that interpreted scripts tend to return.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case string:
		return Text(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", t, err)
		}
		return Number(f), nil
	case []any:
		out := make(List, len(t))
		for i, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		out := make(Map, len(t))
		for k, e := range t {
			v, err := FromAny(e)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32:
		return Number(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		out := make(List, rv.Len())
		for i := range rv.Len() {
			v, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		out := make(Map, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().String()
			v, err := FromAny(iter.Value().Interface())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return FromAny(rv.Elem().Interface())
	default:
		return nil, fmt.Errorf("unsupported type %T", x)
	}
}

// FromFastJSON converts a parsed fastjson tree into a Value. Keys and
// strings are copied, so the parser may be reused afterwards.
func FromFastJSON(v *fastjson.Value) Value {
	if v == nil {
		return Null{}
	}
	switch v.Type() {
	case fastjson.TypeNull:
		return Null{}
	case fastjson.TypeTrue:
		return Bool(true)
	case fastjson.TypeFalse:
		return Bool(false)
	case fastjson.TypeNumber:
		f, _ := v.Float64()
		return Number(f)
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return Text(string(b))
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make(List, len(arr))
		for i, e := range arr {
			out[i] = FromFastJSON(e)
		}
		return out
	case fastjson.TypeObject:
		obj, _ := v.Object()
		out := make(Map, obj.Len())
		obj.Visit(func(key []byte, e *fastjson.Value) {
			out[string(key)] = FromFastJSON(e)
		})
		return out
	default:
		return Null{}
	}
}

// ParseJSON parses text as a single JSON value.
func ParseJSON(text string) (Value, error) {
	var p fastjson.Parser
	v, err := p.Parse(text)
	if err != nil {
		return nil, err
	}
	return FromFastJSON(v), nil
}
