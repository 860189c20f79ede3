package table

import (
	"github.com/zknill/poorly/value"
)

// Matches implements the §4.3 condition-evaluation rules for a single
// (column value, condition value) pair:
//
//   - scalar vs scalar: strict equality including kind (int vs float never
//     matches even when numerically equal).
//   - interval condition vs scalar row value: the row value must fall
//     within the closed interval.
//   - scalar condition vs interval row value: the condition scalar must lie
//     within the row's interval.
//   - interval vs interval: the two intervals must intersect.
//
// Any other pairing of kinds is a *value.TypeError.
func Matches(column string, rowValue, cond value.Value) (bool, error) {
	switch {
	case isScalar(rowValue.Kind) && isScalar(cond.Kind):
		return rowValue.Equal(cond), nil

	case isScalar(rowValue.Kind) && isInterval(cond.Kind):
		return scalarInInterval(rowValue, cond)

	case isInterval(rowValue.Kind) && isScalar(cond.Kind):
		return scalarInInterval(cond, rowValue)

	case isInterval(rowValue.Kind) && isInterval(cond.Kind):
		return intervalsIntersect(rowValue, cond)
	}

	return false, &value.TypeError{Column: column, Expected: rowValue.Kind, Got: string(cond.Kind)}
}

func isScalar(k value.Kind) bool {
	switch k {
	case value.KindInt, value.KindFloat, value.KindChar, value.KindString, value.KindEmail, value.KindSerial:
		return true
	}
	return false
}

func isInterval(k value.Kind) bool {
	return k == value.KindCharInterval || k == value.KindStringInterval
}

// scalarInInterval reports whether scalar falls within interval's closed
// bounds. The two must agree on inner type (char vs char_invl, string vs
// string_invl); any other pairing is a type error.
func scalarInInterval(scalar, interval value.Value) (bool, error) {
	switch {
	case scalar.Kind == value.KindChar && interval.Kind == value.KindCharInterval:
		return interval.CharLow <= scalar.Char && scalar.Char <= interval.CharHigh, nil
	case scalar.Kind == value.KindString && interval.Kind == value.KindStringInterval:
		return interval.StrLow <= scalar.Str && scalar.Str <= interval.StrHigh, nil
	}
	return false, &value.TypeError{Expected: interval.Kind, Got: string(scalar.Kind)}
}

// intervalsIntersect reports whether two intervals of the same kind share
// any point.
func intervalsIntersect(a, b value.Value) (bool, error) {
	if a.Kind != b.Kind {
		return false, &value.TypeError{Expected: a.Kind, Got: string(b.Kind)}
	}
	switch a.Kind {
	case value.KindCharInterval:
		lo := a.CharLow
		if b.CharLow > lo {
			lo = b.CharLow
		}
		hi := a.CharHigh
		if b.CharHigh < hi {
			hi = b.CharHigh
		}
		return lo <= hi, nil
	case value.KindStringInterval:
		lo := a.StrLow
		if b.StrLow > lo {
			lo = b.StrLow
		}
		hi := a.StrHigh
		if b.StrHigh < hi {
			hi = b.StrHigh
		}
		return lo <= hi, nil
	}
	return false, &value.TypeError{Expected: a.Kind, Got: string(b.Kind)}
}

// MatchAll reports whether row (keyed by column name) satisfies every
// condition. Conditions combine with AND; an empty condition set always
// matches.
func MatchAll(table string, row map[string]value.Value, conditions map[string]value.Value) (bool, error) {
	for col, cond := range conditions {
		rv, ok := row[col]
		if !ok {
			return false, &ColumnNotFoundError{Table: table, Column: col}
		}
		ok2, err := Matches(col, rv, cond)
		if err != nil {
			return false, err
		}
		if !ok2 {
			return false, nil
		}
	}
	return true, nil
}
