package extraction

import (
	"encoding/json"
	"strconv"
)

// Kind is the declared type of a field's value
type Kind int

const (
	KindString Kind = iota + 1
	KindFloat
	KindInt
)

// Value is a typed field value or the Absent marker.
// The zero Value is Absent.
type Value struct {
	kind Kind
	str  string
	num  float64
	n    int64
}

// Absent returns the explicit "no value" marker
func Absent() Value {
	return Value{}
}

// StringValue wraps s as a present string value
func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// FloatValue wraps f as a present float value
func FloatValue(f float64) Value {
	return Value{kind: KindFloat, num: f}
}

// IntValue wraps n as a present integer value
func IntValue(n int64) Value {
	return Value{kind: KindInt, n: n}
}

// Present reports whether the value holds data
func (v Value) Present() bool {
	return v.kind != 0
}

// Kind returns the value's type, or 0 when Absent
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the string value and whether one is present
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsFloat returns the float value and whether one is present
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.num, true
}

// AsInt returns the integer value and whether one is present
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.n, true
}

// String renders the value for display. Absent renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindFloat:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.n, 10)
	default:
		return ""
	}
}

// MarshalJSON encodes Absent as null and present values as their JSON scalar
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindFloat:
		return json.Marshal(v.num)
	case KindInt:
		return json.Marshal(v.n)
	default:
		return []byte("null"), nil
	}
}

// decodeValue reads a JSON scalar as a value of the given kind
func decodeValue(kind Kind, raw json.RawMessage) (Value, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return Absent(), nil
	}
	switch kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Absent(), err
		}
		return StringValue(s), nil
	case KindFloat:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Absent(), err
		}
		return FloatValue(f), nil
	case KindInt:
		var n int64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Absent(), err
		}
		return IntValue(n), nil
	default:
		return Absent(), nil
	}
}
