package bitable

import (
	"encoding/json"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindString
	kindNumber
	kindBool
	kindArray
	kindObject
)

// Value is one raw cell from the table service. Depending on the column
// type a cell arrives as a JSON string, number, boolean, array
// (multi-select), or an object (hyperlink columns use {link, text}).
// Values never leak past the field normalizer.
type Value struct {
	kind valueKind
	str  string
	num  float64
	b    bool
	arr  []Value
	obj  map[string]Value
}

// Fields is the raw field map of one record.
type Fields map[string]Value

func (v *Value) UnmarshalJSON(data []byte) error {
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*v = fromAny(probe)
	return nil
}

func fromAny(raw interface{}) Value {
	switch t := raw.(type) {
	case string:
		return Value{kind: kindString, str: t}
	case float64:
		return Value{kind: kindNumber, num: t}
	case bool:
		return Value{kind: kindBool, b: t}
	case []interface{}:
		arr := make([]Value, 0, len(t))
		for _, e := range t {
			arr = append(arr, fromAny(e))
		}
		return Value{kind: kindArray, arr: arr}
	case map[string]interface{}:
		obj := make(map[string]Value, len(t))
		for k, e := range t {
			obj[k] = fromAny(e)
		}
		return Value{kind: kindObject, obj: obj}
	default:
		// null and anything the service invents later
		return Value{kind: kindNull}
	}
}

// StringValue builds a plain string Value. Test helper and the seam for
// fakes that assemble raw records by hand.
func StringValue(s string) Value { return Value{kind: kindString, str: s} }

// NumberValue builds a numeric Value.
func NumberValue(n float64) Value { return Value{kind: kindNumber, num: n} }

// BoolValue builds a boolean Value.
func BoolValue(b bool) Value { return Value{kind: kindBool, b: b} }

// ArrayValue builds an array Value from its elements.
func ArrayValue(elems ...Value) Value { return Value{kind: kindArray, arr: elems} }

// LinkValue builds the hyperlink-object shape {link, text}.
func LinkValue(link, text string) Value {
	return Value{kind: kindObject, obj: map[string]Value{
		"link": StringValue(link),
		"text": StringValue(text),
	}}
}

// IsNull reports whether the cell was absent or of an unknown shape.
func (v Value) IsNull() bool { return v.kind == kindNull }

// Str returns the string payload and whether the cell is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == kindString }

// Num returns the numeric payload and whether the cell is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == kindNumber }

// Bool returns the boolean payload and whether the cell is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == kindBool }

// Elems returns the array elements and whether the cell is an array.
func (v Value) Elems() ([]Value, bool) { return v.arr, v.kind == kindArray }

// Member returns the named member of an object cell.
func (v Value) Member(key string) (Value, bool) {
	if v.kind != kindObject {
		return Value{}, false
	}
	m, ok := v.obj[key]
	return m, ok
}
