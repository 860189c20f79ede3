// Package table implements the native, file-backed table storage engine:
// one open file per table, scan-based row operations, and the §4.3
// condition-evaluation rules consumed by Select/Update/Delete. Every
// operation here is exclusive-access-per-call per the engine's concurrency
// model; this package itself holds no lock and trusts its caller (the
// database/engine layers) to serialize access.
package table

import (
	"fmt"
	"io"
	"os"

	"github.com/zknill/poorly/row"
	"github.com/zknill/poorly/schema"
	"github.com/zknill/poorly/value"
)

// Table owns one table's backing file and column declaration. Only native
// kinds (see value.NativeKinds) are ever held here; the SQL-backed kinds
// (email, serial) are handled entirely by the sqlbackend package.
type Table struct {
	name    string
	path    string
	columns []schema.Column
	kinds   []value.Kind
	file    *os.File
}

// Open opens (creating if absent) the backing file at path for a table
// declared with columns, in schema column order.
func Open(name, path string, columns []schema.Column) (*Table, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("table: opening %q: %w", name, err)
	}
	kinds := make([]value.Kind, len(columns))
	for i, c := range columns {
		kinds[i] = c.Type
	}
	return &Table{name: name, path: path, columns: columns, kinds: kinds, file: f}, nil
}

// Close releases the backing file handle without removing it.
func (t *Table) Close() error {
	return t.file.Close()
}

// Drop closes and removes the backing file.
func (t *Table) Drop() error {
	if err := t.file.Close(); err != nil {
		return err
	}
	return os.Remove(t.path)
}

// Rename applies a schema column rename (old name -> new name) to the open
// table's in-memory column list. Row bytes are untouched: column identity
// is positional, not name-keyed, in the native row format.
func (t *Table) Rename(renamings map[string]string) {
	for i, c := range t.columns {
		if newName, ok := renamings[c.Name]; ok {
			t.columns[i].Name = newName
		}
	}
}

func (t *Table) columnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) columnKind(name string) (value.Kind, bool) {
	for _, c := range t.columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

// rowMap converts a decoded value slice (in schema column order) into a
// column-keyed map.
func (t *Table) rowMap(values []value.Value) map[string]value.Value {
	m := make(map[string]value.Value, len(values))
	for i, c := range t.columns {
		m[c.Name] = values[i]
	}
	return m
}

// scan walks the file from the start, invoking visit for every decoded row
// (live or tombstoned) with its byte offset. visit returns stop=true to end
// the scan early. io.EOF at a row boundary ends the scan normally.
func (t *Table) scan(visit func(offset int64, deleted bool, values []value.Value) (stop bool, err error)) error {
	if _, err := t.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	for {
		offset, err := t.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		deleted, values, err := row.Decode(t.file, t.kinds)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &CorruptRowError{Table: t.name, Offset: offset, Reason: err.Error()}
		}
		stop, err := visit(offset, deleted, values)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Insert coerces input (column name -> untyped literal), rejects missing or
// extra columns, appends the encoded row, and returns the effective row.
func (t *Table) Insert(input map[string]interface{}) (map[string]value.Value, error) {
	for k := range input {
		if _, ok := t.columnKind(k); !ok {
			return nil, &ExtraColumnError{Table: t.name, Column: k}
		}
	}

	values := make([]value.Value, len(t.columns))
	for i, c := range t.columns {
		raw, ok := input[c.Name]
		if !ok {
			return nil, &MissingColumnError{Table: t.name, Column: c.Name}
		}
		v, err := value.Coerce(c.Name, c.Type, raw)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
		return nil, err
	}
	if err := row.Encode(t.file, false, t.kinds, values); err != nil {
		return nil, fmt.Errorf("table: inserting into %q: %w", t.name, err)
	}
	return t.rowMap(values), nil
}

// conditionValues coerces a condition map's raw literals against the
// table's declared column kinds, except that interval-shaped raw literals
// on a char or string column are accepted as containment conditions (§4.3).
func (t *Table) conditionValues(conditions map[string]interface{}) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(conditions))
	for col, raw := range conditions {
		kind, ok := t.columnKind(col)
		if !ok {
			return nil, &ColumnNotFoundError{Table: t.name, Column: col}
		}
		v, err := coerceCondition(col, kind, raw)
		if err != nil {
			return nil, err
		}
		out[col] = v
	}
	return out, nil
}

// coerceCondition coerces a condition literal against a column's declared
// kind, but lets the literal's shape pick either side of a scalar/interval
// pair so that containment-style conditions (§4.3) type-check: a
// two-element array condition against a char or string column coerces to
// that column's interval counterpart, and a bare scalar condition against an
// interval column coerces to that interval's inner scalar kind. Int and
// float columns have no interval counterpart, so an array condition on them
// is a *value.TypeError.
func coerceCondition(column string, kind value.Kind, raw interface{}) (value.Value, error) {
	_, isArray := raw.([]interface{})

	switch kind {
	case value.KindChar:
		if isArray {
			return value.Coerce(column, value.KindCharInterval, raw)
		}
	case value.KindString:
		if isArray {
			return value.Coerce(column, value.KindStringInterval, raw)
		}
	case value.KindCharInterval:
		if !isArray {
			return value.Coerce(column, value.KindChar, raw)
		}
	case value.KindStringInterval:
		if !isArray {
			return value.Coerce(column, value.KindString, raw)
		}
	}
	return value.Coerce(column, kind, raw)
}

// Select scans the table for live rows matching conditions, projecting
// columns (empty means all), in file order.
func (t *Table) Select(columns []string, rawConditions map[string]interface{}) ([]map[string]value.Value, error) {
	for _, c := range columns {
		if _, ok := t.columnKind(c); !ok {
			return nil, &ColumnNotFoundError{Table: t.name, Column: c}
		}
	}
	conditions, err := t.conditionValues(rawConditions)
	if err != nil {
		return nil, err
	}

	var results []map[string]value.Value
	err = t.scan(func(offset int64, deleted bool, values []value.Value) (bool, error) {
		if deleted {
			return false, nil
		}
		rm := t.rowMap(values)
		ok, err := MatchAll(t.name, rm, conditions)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		results = append(results, project(rm, columns))
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func project(row map[string]value.Value, columns []string) map[string]value.Value {
	if len(columns) == 0 {
		out := make(map[string]value.Value, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(map[string]value.Value, len(columns))
	for _, c := range columns {
		out[c] = row[c]
	}
	return out
}

// Update rewrites every live row matching conditions with set applied on
// top, in place when the new encoding is exactly as wide as the old, or by
// tombstoning the old row and appending the new one otherwise. Returns the
// post-mutation rows.
func (t *Table) Update(rawSet map[string]interface{}, rawConditions map[string]interface{}) ([]map[string]value.Value, error) {
	for k := range rawSet {
		if _, ok := t.columnKind(k); !ok {
			return nil, &ColumnNotFoundError{Table: t.name, Column: k}
		}
	}
	conditions, err := t.conditionValues(rawConditions)
	if err != nil {
		return nil, err
	}

	type pending struct {
		offset  int64
		oldSize int
		values  []value.Value
	}
	var toUpdate []pending

	err = t.scan(func(offset int64, deleted bool, values []value.Value) (bool, error) {
		if deleted {
			return false, nil
		}
		rm := t.rowMap(values)
		ok, err := MatchAll(t.name, rm, conditions)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}

		newValues := make([]value.Value, len(values))
		copy(newValues, values)
		for i, c := range t.columns {
			if raw, ok := rawSet[c.Name]; ok {
				v, err := value.Coerce(c.Name, c.Type, raw)
				if err != nil {
					return false, err
				}
				newValues[i] = v
			}
		}
		toUpdate = append(toUpdate, pending{
			offset:  offset,
			oldSize: row.EncodedSize(t.kinds, values),
			values:  newValues,
		})
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]map[string]value.Value, 0, len(toUpdate))
	for _, p := range toUpdate {
		newSize := row.EncodedSize(t.kinds, p.values)
		if newSize == p.oldSize {
			if _, err := t.file.Seek(p.offset, io.SeekStart); err != nil {
				return nil, err
			}
			if err := row.Encode(t.file, false, t.kinds, p.values); err != nil {
				return nil, err
			}
		} else {
			if err := t.tombstone(p.offset); err != nil {
				return nil, err
			}
			if _, err := t.file.Seek(0, io.SeekEnd); err != nil {
				return nil, err
			}
			if err := row.Encode(t.file, false, t.kinds, p.values); err != nil {
				return nil, err
			}
		}
		results = append(results, t.rowMap(p.values))
	}
	return results, nil
}

// Delete tombstones every live row matching conditions, returning the rows
// that were deleted. Re-deleting an already-tombstoned row is a no-op: it
// is never visited by scan's deleted==false filter, so a repeated call
// against the same condition returns an empty list.
func (t *Table) Delete(rawConditions map[string]interface{}) ([]map[string]value.Value, error) {
	conditions, err := t.conditionValues(rawConditions)
	if err != nil {
		return nil, err
	}

	var offsets []int64
	var deletedRows []map[string]value.Value

	err = t.scan(func(offset int64, deleted bool, values []value.Value) (bool, error) {
		if deleted {
			return false, nil
		}
		rm := t.rowMap(values)
		ok, err := MatchAll(t.name, rm, conditions)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		offsets = append(offsets, offset)
		deletedRows = append(deletedRows, rm)
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	for _, off := range offsets {
		if err := t.tombstone(off); err != nil {
			return nil, err
		}
	}
	return deletedRows, nil
}

// tombstone flips the single tombstone byte at a row's offset.
func (t *Table) tombstone(offset int64) error {
	if _, err := t.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}
	if _, err := t.file.Write([]byte{0x01}); err != nil {
		return err
	}
	return nil
}
