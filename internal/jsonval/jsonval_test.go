package jsonval_test

import (
	"encoding/json"
	"testing"

	"github.com/openrpckit/rpcconform/internal/jsonval"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		v    any
		want jsonval.Kind
	}{
		{nil, jsonval.KindNull},
		{true, jsonval.KindBool},
		{"x", jsonval.KindString},
		{json.Number("1.5"), jsonval.KindNumber},
		{3.14, jsonval.KindNumber},
		{int64(7), jsonval.KindNumber},
		{uint8(7), jsonval.KindNumber},
		{[]any{1}, jsonval.KindArray},
		{map[string]any{}, jsonval.KindObject},
		{struct{}{}, jsonval.KindInvalid},
		{[]string{"not an any slice"}, jsonval.KindInvalid},
	}
	for _, tc := range cases {
		if got := jsonval.KindOf(tc.v); got != tc.want {
			t.Fatalf("KindOf(%#v) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestKindString(t *testing.T) {
	if jsonval.KindObject.String() != "object" || jsonval.KindArray.String() != "array" {
		t.Fatalf("kind names drifted")
	}
}

func TestDecode_PreservesNumbers(t *testing.T) {
	v, err := jsonval.Decode([]byte(`{"big": 9007199254740993, "frac": 0.1}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	obj := v.(map[string]any)
	big, ok := obj["big"].(json.Number)
	if !ok || big.String() != "9007199254740993" {
		t.Fatalf("big = %#v, integer precision lost", obj["big"])
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := jsonval.Decode([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{nil, nil, true},
		{nil, false, false},
		{"a", "a", true},
		{"a", "b", false},
		{json.Number("1"), json.Number("1.0"), true},
		{json.Number("2"), 2.0, true},
		{int64(3), json.Number("3"), true},
		{json.Number("1"), json.Number("2"), false},
		{"1", json.Number("1"), false},
		{[]any{json.Number("1"), "x"}, []any{1.0, "x"}, true},
		{[]any{"x"}, []any{"x", "y"}, false},
		{
			map[string]any{"a": json.Number("1"), "b": map[string]any{"c": nil}},
			map[string]any{"b": map[string]any{"c": nil}, "a": 1.0},
			true,
		},
		{map[string]any{"a": 1.0}, map[string]any{"a": 1.0, "b": 2.0}, false},
	}
	for _, tc := range cases {
		if got := jsonval.Equal(tc.a, tc.b); got != tc.want {
			t.Fatalf("Equal(%#v, %#v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFromYAML(t *testing.T) {
	in := map[any]any{
		"count":  2,
		"ratio":  0.5,
		"name":   "v1",
		"nested": []any{map[any]any{"ok": true}},
		42:       "non-string keys are dropped",
	}
	out := jsonval.FromYAML(in)
	obj, ok := out.(map[string]any)
	if !ok {
		t.Fatalf("FromYAML = %T, want map[string]any", out)
	}
	if n, ok := obj["count"].(json.Number); !ok || n.String() != "2" {
		t.Fatalf("count = %#v", obj["count"])
	}
	if _, ok := obj["ratio"].(json.Number); !ok {
		t.Fatalf("ratio = %#v", obj["ratio"])
	}
	if _, dropped := obj["42"]; dropped {
		t.Fatalf("non-string key survived: %v", obj)
	}
	arr := obj["nested"].([]any)
	if inner, ok := arr[0].(map[string]any); !ok || inner["ok"] != true {
		t.Fatalf("nested = %#v", arr[0])
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	v, err := jsonval.Decode([]byte(`{"a":[1,"x",null]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := jsonval.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := jsonval.Decode(out)
	if err != nil {
		t.Fatalf("Decode round trip: %v", err)
	}
	if !jsonval.Equal(v, back) {
		t.Fatalf("round trip changed the value: %s", out)
	}
}
