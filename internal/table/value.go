package table

import "strconv"

// Kind tags a cell Value.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindNumber
)

// Value is what a column extracts from an item. Only values of the same
// kind are comparable; everything else sorts as equal.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

// String wraps a text cell.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// Number wraps a numeric cell.
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// Int is Number for integer fields.
func Int(n int) Value {
	return Number(float64(n))
}

// None is a missing cell.
func None() Value {
	return Value{}
}

// Text is the searchable form of v: strings as-is, numbers in shortest
// decimal form (33.3, 12, -0.5). None has no text.
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindString:
		return v.Str, true
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64), true
	default:
		return "", false
	}
}
