package domain

import (
	"strconv"
	"strings"
)

// Kind discriminates the scalar type carried by a Value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

// Value is one column value of a source row. Source rows arrive without
// static schema knowledge, so values are carried as tagged scalars and
// marshal to the natural JSON form.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String wraps a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number wraps a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Boolean wraps a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Text renders the value as it would appear in a text column.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// MarshalJSON encodes the value as the corresponding JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return strconv.AppendQuote(nil, v.Str), nil
	case KindNumber:
		return strconv.AppendFloat(nil, v.Num, 'f', -1, 64), nil
	case KindBool:
		return strconv.AppendBool(nil, v.Bool), nil
	default:
		return []byte("null"), nil
	}
}

// Record is one input row: column name → value.
type Record map[string]Value

// Text returns the trimmed value of the text column, or "" when the column
// is missing, null or blank.
func (r Record) Text(column string) string {
	return strings.TrimSpace(r[column].Text())
}

// ID returns the id column rendered as a string, or "" when missing or null.
func (r Record) ID(column string) string {
	return r[column].Text()
}

// Payload returns all non-null fields of the record.
func (r Record) Payload() map[string]Value {
	payload := make(map[string]Value, len(r))
	for name, v := range r {
		if v.IsNull() {
			continue
		}
		payload[name] = v
	}
	return payload
}
