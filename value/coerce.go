package value

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

var columnNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidColumnName reports whether name matches the identifier grammar
// shared by column and table names: `[A-Za-z_][A-Za-z0-9_]*`.
func ValidColumnName(name string) bool {
	return columnNamePattern.MatchString(name)
}

// Coerce converts an untyped literal (as decoded from a JSON request body)
// into a Value of the given column Kind, or returns a *TypeError.
//
// raw is expected to use encoding/json's decoding types: string, bool,
// json.Number or float64 for numbers, []interface{} for arrays, and nil.
func Coerce(column string, kind Kind, raw interface{}) (Value, error) {
	switch kind {
	case KindInt:
		n, ok := asInt(raw)
		if !ok {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		return Int(n), nil

	case KindFloat:
		f, ok := asFloat(raw)
		if !ok {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		return Float(f), nil

	case KindChar:
		s, ok := raw.(string)
		if !ok || utf8.RuneCountInString(s) != 1 {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		r, _ := utf8.DecodeRuneInString(s)
		return Char(r), nil

	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		return String(s), nil

	case KindEmail:
		s, ok := raw.(string)
		if !ok || !emailPattern.MatchString(s) {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		return Email(s), nil

	case KindSerial:
		// Serial columns are server-assigned; the caller (sqlbackend.Insert)
		// rejects serial values supplied on insert before ever reaching here.
		// Coerce accepts them for condition literals on serial columns.
		n, ok := asInt(raw)
		if !ok || n < 0 {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		return Serial(uint32(n)), nil

	case KindCharInterval:
		lo, hi, ok := asPair(raw)
		if !ok {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		loStr, ok1 := lo.(string)
		hiStr, ok2 := hi.(string)
		if !ok1 || !ok2 || utf8.RuneCountInString(loStr) != 1 || utf8.RuneCountInString(hiStr) != 1 {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		loR, _ := utf8.DecodeRuneInString(loStr)
		hiR, _ := utf8.DecodeRuneInString(hiStr)
		if loR > hiR {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: "interval with low > high"}
		}
		return CharInterval(loR, hiR), nil

	case KindStringInterval:
		lo, hi, ok := asPair(raw)
		if !ok {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		loStr, ok1 := lo.(string)
		hiStr, ok2 := hi.(string)
		if !ok1 || !ok2 {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: describe(raw)}
		}
		if loStr > hiStr {
			return Value{}, &TypeError{Column: column, Expected: kind, Got: "interval with low > high"}
		}
		return StringInterval(loStr, hiStr), nil

	default:
		return Value{}, &TypeError{Column: column, Expected: kind, Got: "unknown kind"}
	}
}

func asPair(raw interface{}) (lo, hi interface{}, ok bool) {
	arr, ok := raw.([]interface{})
	if !ok || len(arr) != 2 {
		return nil, nil, false
	}
	return arr[0], arr[1], true
}

// asInt accepts only values that are unambiguously integral: a Go int64 or
// int, a json.Number that parses as an integer, or a float64 with no
// fractional part. Strings and fractional numbers are rejected.
func asInt(raw interface{}) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		// encoding/json without UseNumber decodes all numbers as float64;
		// accept it only when it has no fractional part so that "1" still
		// coerces to an int column while "1.5" is rejected.
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

func asFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func describe(raw interface{}) string {
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
