package table

import "fmt"

// ColumnNotFoundError reports a reference to a column absent from the
// table's schema, in a condition, projection, or set clause.
type ColumnNotFoundError struct {
	Table, Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("table: column %q not found on table %q", e.Column, e.Table)
}

// MissingColumnError reports an insert that omits a required (non-serial)
// column.
type MissingColumnError struct {
	Table, Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table: insert into %q missing column %q", e.Table, e.Column)
}

// ExtraColumnError reports an insert naming a column the table does not
// declare.
type ExtraColumnError struct {
	Table, Column string
}

func (e *ExtraColumnError) Error() string {
	return fmt.Sprintf("table: insert into %q names unknown column %q", e.Table, e.Column)
}

// CorruptRowError reports a row that failed to decode at a known byte
// offset: a truncated stream, a bad tombstone byte, or an undecodable
// value.
type CorruptRowError struct {
	Table  string
	Offset int64
	Reason string
}

func (e *CorruptRowError) Error() string {
	return fmt.Sprintf("table: %q corrupt at offset %d: %s", e.Table, e.Offset, e.Reason)
}
