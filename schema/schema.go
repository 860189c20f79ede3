// Package schema manages the per-database metadata document: the ordered
// table list, each table's ordered column list, and the backend kind the
// database was created with. It is persisted as a YAML sidecar file via
// gopkg.in/yaml.v3 (see persist.go).
package schema

import (
	"github.com/zknill/poorly/value"
)

// BackendKind discriminates the storage engine a database was created
// with. It is fixed at database-creation time and never changes.
type BackendKind string

const (
	Poorly BackendKind = "Poorly"
	Sqlite BackendKind = "Sqlite"
)

// Column is a named, typed, ordered slot within a table.
type Column struct {
	Name string     `yaml:"name"`
	Type value.Kind `yaml:"type"`
}

// Table is the ordered column list for one named table.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`
}

// FindColumn looks up a column by name, or returns nil.
func (t *Table) FindColumn(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the table's columns in declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Kinds returns the table's column kinds in declared order.
func (t *Table) Kinds() []value.Kind {
	kinds := make([]value.Kind, len(t.Columns))
	for i, c := range t.Columns {
		kinds[i] = c.Type
	}
	return kinds
}

// Schema is one database's persisted metadata document.
type Schema struct {
	DBName string      `yaml:"name"`
	Kind   BackendKind `yaml:"kind"`
	Tables []Table     `yaml:"tables"`
}

// New returns an empty schema for a database of the given backend kind.
func New(name string, kind BackendKind) *Schema {
	return &Schema{DBName: name, Kind: kind}
}

// FindTable looks up a table by name, or returns nil.
func (s *Schema) FindTable(name string) *Table {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// allowedKinds returns the column kind set permitted under this schema's
// backend kind.
func (s *Schema) allowedKinds() []value.Kind {
	if s.Kind == Sqlite {
		return value.SQLKinds()
	}
	return value.NativeKinds()
}

// CreateTable validates and appends a new table definition, rejecting
// duplicate names, invalid identifiers, empty column lists, duplicate
// column names, and column kinds outside this schema's backend kind set.
func (s *Schema) CreateTable(name string, columns []Column) error {
	if !value.ValidColumnName(name) {
		return &InvalidNameError{Name: name}
	}
	if s.FindTable(name) != nil {
		return &DuplicateTableError{Table: name}
	}
	if len(columns) == 0 {
		return &EmptyColumnsError{Table: name}
	}

	seen := make(map[string]bool, len(columns))
	allowed := s.allowedKinds()
	for _, c := range columns {
		if !value.ValidColumnName(c.Name) {
			return &InvalidNameError{Name: c.Name}
		}
		if seen[c.Name] {
			return &DuplicateColumnError{Table: name, Column: c.Name}
		}
		seen[c.Name] = true

		if !containsKind(allowed, c.Type) {
			return &value.TypeError{Column: c.Name, Expected: allowed[0], Got: string(c.Type)}
		}
	}

	s.Tables = append(s.Tables, Table{Name: name, Columns: append([]Column(nil), columns...)})
	return nil
}

// DropTable removes a table entry, or returns *TableNotFoundError.
func (s *Schema) DropTable(name string) error {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			s.Tables = append(s.Tables[:i], s.Tables[i+1:]...)
			return nil
		}
	}
	return &TableNotFoundError{Table: name}
}

// AlterTable renames columns of an existing table according to renamings
// (old name -> new name). It rejects unknown old names, new names that
// collide with a surviving column name, and new names that fail the
// identifier grammar. The permutation preserves column order and type.
func (s *Schema) AlterTable(table string, renamings map[string]string) error {
	t := s.FindTable(table)
	if t == nil {
		return &TableNotFoundError{Table: table}
	}

	for oldName := range renamings {
		if t.FindColumn(oldName) == nil {
			return &ColumnNotFoundError{Table: table, Column: oldName}
		}
	}

	finalNames := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		newName, renamed := renamings[c.Name]
		if renamed {
			if !value.ValidColumnName(newName) {
				return &InvalidNameError{Name: newName}
			}
			finalNames[newName] = true
		} else {
			finalNames[c.Name] = true
		}
	}
	if len(finalNames) != len(t.Columns) {
		return &DuplicateColumnError{Table: table, Column: "<renamed>"}
	}

	for i, c := range t.Columns {
		if newName, ok := renamings[c.Name]; ok {
			t.Columns[i].Name = newName
		}
	}
	return nil
}

func containsKind(kinds []value.Kind, k value.Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}
