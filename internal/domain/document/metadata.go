package document

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind is the scalar type held by a metadata Value.
type Kind uint8

// Metadata value kinds.
const (
	KindString Kind = iota + 1
	KindNumber
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "invalid"
	}
}

// Value is a source-specific scalar: a string, a number or a timestamp.
// The zero Value is invalid and is skipped by Metadata constructors.
type Value struct {
	kind Kind
	str  string
	num  float64
	ts   time.Time
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, str: s} }

// NumberValue wraps a number.
func NumberValue(n float64) Value { return Value{kind: KindNumber, num: n} }

// TimeValue wraps a timestamp.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, ts: t} }

// Kind returns the scalar kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != 0 }

// AsString returns the string payload if v is a string.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsNumber returns the numeric payload if v is a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsTime returns the timestamp payload if v is a timestamp.
func (v Value) AsTime() (time.Time, bool) { return v.ts, v.kind == KindTime }

// Text renders any kind as display text. Invalid values render as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.ts.Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON encodes strings and numbers natively and timestamps as RFC 3339.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindTime:
		return json.Marshal(v.ts.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

// Metadata is an open mapping of source-specific keys to typed scalars.
type Metadata map[string]Value

// Get returns the raw value for key.
func (m Metadata) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok && v.IsValid()
}

// String returns the string stored at key.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Number returns the number stored at key.
func (m Metadata) Number(key string) (float64, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Time returns the timestamp stored at key.
func (m Metadata) Time(key string) (time.Time, bool) {
	v, ok := m.Get(key)
	if !ok {
		return time.Time{}, false
	}
	return v.AsTime()
}

// Text returns the display text at key, or fallback if the key is absent.
func (m Metadata) Text(key, fallback string) string {
	v, ok := m.Get(key)
	if !ok {
		return fallback
	}
	if s := v.Text(); s != "" {
		return s
	}
	return fallback
}

func (m Metadata) clone() Metadata {
	if m == nil {
		return nil
	}
	c := make(Metadata, len(m))
	for k, v := range m {
		if v.IsValid() {
			c[k] = v
		}
	}
	return c
}
