package schema

import "fmt"

type TableNotFoundError struct{ Table string }

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("schema: table %q not found", e.Table)
}

type ColumnNotFoundError struct{ Table, Column string }

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("schema: column %q not found on table %q", e.Column, e.Table)
}

type DuplicateTableError struct{ Table string }

func (e *DuplicateTableError) Error() string {
	return fmt.Sprintf("schema: table %q already exists", e.Table)
}

type DuplicateColumnError struct{ Table, Column string }

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("schema: column %q already exists on table %q", e.Column, e.Table)
}

type EmptyColumnsError struct{ Table string }

func (e *EmptyColumnsError) Error() string {
	return fmt.Sprintf("schema: table %q must declare at least one column", e.Table)
}

type InvalidNameError struct{ Name string }

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("schema: invalid identifier %q", e.Name)
}

type CorruptDatabaseError struct {
	Database string
	Reason   string
}

func (e *CorruptDatabaseError) Error() string {
	return fmt.Sprintf("schema: database %q is corrupt: %s", e.Database, e.Reason)
}
