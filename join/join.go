// Package join implements the two-table equi-join executor described in
// §4.7: a hash join keyed on the right-hand side's join values, probed by
// the left side in scan order, with qualified (table.column) result keys.
package join

import (
	"fmt"
	"strings"

	"github.com/zknill/poorly/util"
	"github.com/zknill/poorly/value"
)

// On pairs a qualified left column ("table1.col") with a qualified right
// column ("table2.col") that must be equal for a row pair to join.
type On struct {
	Left  string
	Right string
}

// ParseOn splits the wire-level join_on map (qualified left -> qualified
// right) into an ordered slice, iterating in sorted key order for
// deterministic evaluation order.
func ParseOn(joinOn map[string]string) []On {
	ons := make([]On, 0, len(joinOn))
	for left, right := range util.CanonicalMapIter(joinOn) {
		ons = append(ons, On{Left: left, Right: right})
	}
	return ons
}

// Execute joins leftRows (from leftTable) against rightRows (from
// rightTable) on the given equalities. Result rows carry fully-qualified
// keys ("table.column") for every column from both sides. Result ordering
// is left-outer scan order, then right-insertion order within each
// matching bucket.
func Execute(leftTable string, leftRows []map[string]value.Value, rightTable string, rightRows []map[string]value.Value, on []On) ([]map[string]value.Value, error) {
	unqualifiedLeft, unqualifiedRight := make([]string, 0, len(on)), make([]string, 0, len(on))
	for _, pair := range on {
		lt, lc, err := splitQualified(pair.Left)
		if err != nil {
			return nil, err
		}
		rt, rc, err := splitQualified(pair.Right)
		if err != nil {
			return nil, err
		}
		if lt != leftTable || rt != rightTable {
			return nil, fmt.Errorf("join: join_on column %q/%q does not reference %s/%s", pair.Left, pair.Right, leftTable, rightTable)
		}
		unqualifiedLeft = append(unqualifiedLeft, lc)
		unqualifiedRight = append(unqualifiedRight, rc)
	}

	buckets := make(map[string][]map[string]value.Value, len(rightRows))
	for _, r := range rightRows {
		key, err := joinKey(r, unqualifiedRight)
		if err != nil {
			return nil, err
		}
		buckets[key] = append(buckets[key], r)
	}

	var results []map[string]value.Value
	for _, l := range leftRows {
		key, err := joinKey(l, unqualifiedLeft)
		if err != nil {
			return nil, err
		}
		for _, r := range buckets[key] {
			results = append(results, mergeQualified(leftTable, l, rightTable, r))
		}
	}
	return results, nil
}

// joinKey renders the join columns' values as a single comparable string
// key. Values compare equal only when both kind and payload match, so the
// key includes the kind tag.
func joinKey(row map[string]value.Value, cols []string) (string, error) {
	var b strings.Builder
	for _, c := range cols {
		v, ok := row[c]
		if !ok {
			return "", fmt.Errorf("join: row missing join column %q", c)
		}
		fmt.Fprintf(&b, "%s:%s|", v.Kind, v.String())
	}
	return b.String(), nil
}

func splitQualified(name string) (table, column string, err error) {
	i := strings.IndexByte(name, '.')
	if i < 0 {
		return "", "", fmt.Errorf("join: %q is not a qualified table.column reference", name)
	}
	return name[:i], name[i+1:], nil
}

// mergeQualified combines a left and right row into one result row, with
// every key fully qualified by its source table name.
func mergeQualified(leftTable string, left map[string]value.Value, rightTable string, right map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(left)+len(right))
	for k, v := range left {
		out[leftTable+"."+k] = v
	}
	for k, v := range right {
		out[rightTable+"."+k] = v
	}
	return out
}
