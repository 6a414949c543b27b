package models

import (
	"encoding/json"
	"strconv"
)

// Kind identifies what a Value holds.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a single payload field. Numbers keep their exact decimal text.
type Value struct {
	kind Kind
	text string
	b    bool
}

// Absent returns the value of a missing or null field.
func Absent() Value { return Value{} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, text: s} }

// NumberValue wraps a JSON number literal.
func NumberValue(n json.Number) Value { return Value{kind: KindNumber, text: n.String()} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the field was missing or null.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Text returns the textual form of the value. ok is false for absent values.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString, KindNumber:
		return v.text, true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Record is a decoded payload: field name to value. Missing keys read as Absent.
type Record map[string]Value

// Get returns the value stored under key, or Absent.
func (r Record) Get(key string) Value {
	if r == nil {
		return Absent()
	}
	return r[key]
}

// Text is shorthand for r.Get(key).Text().
func (r Record) Text(key string) (string, bool) {
	return r.Get(key).Text()
}

// RecordFromMap converts a map decoded with json.Decoder.UseNumber into a Record.
// Nested objects and arrays are kept as their compact JSON text.
func RecordFromMap(m map[string]interface{}) Record {
	rec := make(Record, len(m))
	for k, raw := range m {
		rec[k] = valueOf(raw)
	}
	return rec
}

func valueOf(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Absent()
	case string:
		return StringValue(v)
	case json.Number:
		return NumberValue(v)
	case bool:
		return BoolValue(v)
	case float64:
		return NumberValue(json.Number(strconv.FormatFloat(v, 'f', -1, 64)))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Absent()
		}
		return StringValue(string(data))
	}
}
