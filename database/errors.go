package database

import "fmt"

// NotFoundError reports a reference to a database directory that does not
// exist.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("database: %q not found", e.Name)
}

// DuplicateError reports create_db against an already-existing directory.
type DuplicateError struct{ Name string }

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("database: %q already exists", e.Name)
}
