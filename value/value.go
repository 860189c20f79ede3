// Package value implements poorly's scalar and interval value system: the
// typed literals a table column can hold, coercion from untyped input (as
// produced by a JSON-decoded request body), and the binary codec used by
// the native row format.
package value

import "fmt"

// Kind identifies a column's declared value type. The native backend and
// the SQL backend each support their own set of kinds (see NativeKinds and
// SQLKinds): both share int, float, char and string, the interval kinds are
// native-only, and email and serial are SQL-only. A schema is pinned to one
// set at database-creation time.
type Kind string

const (
	KindInt            Kind = "int"
	KindFloat          Kind = "float"
	KindChar           Kind = "char"
	KindString         Kind = "string"
	KindCharInterval   Kind = "char_invl"
	KindStringInterval Kind = "string_invl"
	KindEmail          Kind = "email"
	KindSerial         Kind = "serial"
)

// NativeKinds returns the column kinds supported by the native (Poorly) backend.
func NativeKinds() []Kind {
	return []Kind{KindInt, KindFloat, KindChar, KindString, KindCharInterval, KindStringInterval}
}

// SQLKinds returns the column kinds supported by the embedded SQL (sqlite) backend.
func SQLKinds() []Kind {
	return []Kind{KindInt, KindFloat, KindChar, KindString, KindEmail, KindSerial}
}

func contains(kinds []Kind, k Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsNative reports whether k belongs to the native backend's type set.
func IsNative(k Kind) bool { return contains(NativeKinds(), k) }

// IsSQL reports whether k belongs to the SQL backend's type set.
func IsSQL(k Kind) bool { return contains(SQLKinds(), k) }

// Value is a tagged scalar or interval literal. Exactly the fields relevant
// to Kind are meaningful; the rest are zero.
type Value struct {
	Kind Kind

	Int    int64
	Float  float64
	Char   rune
	Str    string
	Serial uint32

	// CharLow/CharHigh are set when Kind == KindCharInterval.
	CharLow, CharHigh rune
	// StrLow/StrHigh are set when Kind == KindStringInterval.
	StrLow, StrHigh string
}

func Int(v int64) Value    { return Value{Kind: KindInt, Int: v} }
func Float(v float64) Value { return Value{Kind: KindFloat, Float: v} }
func Char(v rune) Value    { return Value{Kind: KindChar, Char: v} }
func String(v string) Value { return Value{Kind: KindString, Str: v} }
func Email(v string) Value  { return Value{Kind: KindEmail, Str: v} }
func Serial(v uint32) Value { return Value{Kind: KindSerial, Serial: v} }

func CharInterval(lo, hi rune) Value {
	return Value{Kind: KindCharInterval, CharLow: lo, CharHigh: hi}
}

func StringInterval(lo, hi string) Value {
	return Value{Kind: KindStringInterval, StrLow: lo, StrHigh: hi}
}

// String renders a Value for error messages and debugging.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindChar:
		return fmt.Sprintf("%q", v.Char)
	case KindString, KindEmail:
		return fmt.Sprintf("%q", v.Str)
	case KindSerial:
		return fmt.Sprintf("%d", v.Serial)
	case KindCharInterval:
		return fmt.Sprintf("[%q,%q]", v.CharLow, v.CharHigh)
	case KindStringInterval:
		return fmt.Sprintf("[%q,%q]", v.StrLow, v.StrHigh)
	default:
		return "<invalid value>"
	}
}

// Equal reports strict scalar-vs-scalar equality (same Kind, same payload).
// It does not implement the interval containment rules — see Matches in
// the table package's condition evaluator for that.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == other.Int
	case KindFloat:
		return v.Float == other.Float
	case KindChar:
		return v.Char == other.Char
	case KindString, KindEmail:
		return v.Str == other.Str
	case KindSerial:
		return v.Serial == other.Serial
	case KindCharInterval:
		return v.CharLow == other.CharLow && v.CharHigh == other.CharHigh
	case KindStringInterval:
		return v.StrLow == other.StrLow && v.StrHigh == other.StrHigh
	default:
		return false
	}
}
