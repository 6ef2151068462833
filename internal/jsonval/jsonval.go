// Package jsonval holds the closed value variant the conformance engine
// dispatches over. Decoded JSON trees use map[string]any / []any / string /
// bool / json.Number / nil; Kind classifies a node and Equal compares two
// trees structurally with numeric normalization.
package jsonval

import (
	"bytes"
	"encoding/json"
	"strconv"

	j "github.com/goccy/go-json"
)

// Kind enumerates JSON value kinds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
	KindInvalid // not a JSON-shaped Go value
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// KindOf classifies a decoded value. Integer kinds cover YAML-decoded scalars
// before normalization.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case string:
		return KindString
	case json.Number, float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindInvalid
	}
}

// Decode builds an any tree from JSON bytes. Numbers decode as json.Number so
// integer precision survives round trips.
func Decode(data []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Marshal encodes a value tree back to JSON.
func Marshal(v any) ([]byte, error) { return j.Marshal(v) }

// Equal compares two value trees structurally. Numbers compare numerically
// regardless of representation (json.Number vs float64 vs YAML int).
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		return numberEqual(a, b)
	case KindArray:
		aa, ba := a.([]any), b.([]any)
		if len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !Equal(aa[i], ba[i]) {
				return false
			}
		}
		return true
	case KindObject:
		ao, bo := a.(map[string]any), b.(map[string]any)
		if len(ao) != len(bo) {
			return false
		}
		for k, av := range ao {
			bv, ok := bo[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// NumberString renders any numeric kind as its decimal text.
func NumberString(v any) (string, bool) {
	switch n := v.(type) {
	case json.Number:
		return n.String(), true
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(n), 'g', -1, 32), true
	case int:
		return strconv.FormatInt(int64(n), 10), true
	case int8:
		return strconv.FormatInt(int64(n), 10), true
	case int16:
		return strconv.FormatInt(int64(n), 10), true
	case int32:
		return strconv.FormatInt(int64(n), 10), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint:
		return strconv.FormatUint(uint64(n), 10), true
	case uint8:
		return strconv.FormatUint(uint64(n), 10), true
	case uint16:
		return strconv.FormatUint(uint64(n), 10), true
	case uint32:
		return strconv.FormatUint(uint64(n), 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	default:
		return "", false
	}
}

func numberEqual(a, b any) bool {
	as, _ := NumberString(a)
	bs, _ := NumberString(b)
	if as == bs {
		return true
	}
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	if aerr != nil || berr != nil {
		return false
	}
	return af == bf
}

// FromYAML converts YAML-decoded values (which may contain map[any]any and
// native int/float scalars) into the JSON-shaped tree the engine expects.
func FromYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = FromYAML(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = FromYAML(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = FromYAML(t[i])
		}
		return arr
	default:
		if s, ok := NumberString(v); ok {
			return json.Number(s)
		}
		return v
	}
}
