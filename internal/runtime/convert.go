package runtime

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/risor-io/risor/object"
)

// viewObject turns a view struct into nested Risor maps keyed by the
// struct's JSON names.
func viewObject(fn string, v any) object.Object {
	data, err := json.Marshal(v)
	if err != nil {
		return object.Errorf("%s: %v", fn, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return object.Errorf("%s: %v", fn, err)
	}
	return toObject(out)
}

// toObject converts decoded JSON values and expr.Interface results.
func toObject(v any) object.Object {
	switch v := v.(type) {
	case nil:
		return object.Nil
	case bool:
		return object.NewBool(v)
	case int64:
		return object.NewInt(v)
	case float64:
		return object.NewFloat(v)
	case string:
		return object.NewString(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return object.NewInt(i)
		}
		f, _ := v.Float64()
		return object.NewFloat(f)
	case []any:
		items := make([]object.Object, len(v))
		for i, item := range v {
			items[i] = toObject(item)
		}
		return object.NewList(items)
	case map[string]any:
		m := make(map[string]object.Object, len(v))
		for k, item := range v {
			m[k] = toObject(item)
		}
		return object.NewMap(m)
	}
	return object.NewString(fmt.Sprint(v))
}

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}
