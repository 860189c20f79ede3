// Package database owns one database directory: its schema sidecar and the
// lazily-opened table handles backing it. It is the layer the engine
// dispatcher opens, creates, and drops by name; table.Table and schema.Schema
// do the actual work.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zknill/poorly/schema"
	"github.com/zknill/poorly/table"
)

// Database is an open handle on one database directory.
type Database struct {
	Name   string
	dir    string
	Schema *schema.Schema
	tables map[string]*table.Table
}

func dataFilePath(dir, tableName string) string {
	return filepath.Join(dir, tableName+".ndb")
}

// Open loads an existing database directory's schema sidecar. It returns
// *NotFoundError if the directory does not exist.
func Open(name, parentPath string) (*Database, error) {
	dir := filepath.Join(parentPath, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, &NotFoundError{Name: name}
	}
	s, err := schema.Load(dir)
	if err != nil {
		return nil, err
	}
	return &Database{Name: name, dir: dir, Schema: s, tables: make(map[string]*table.Table)}, nil
}

// Create makes a new, empty database directory of the given backend kind.
// It returns *DuplicateError if the directory already exists.
func Create(name, parentPath string, kind schema.BackendKind) (*Database, error) {
	dir := filepath.Join(parentPath, name)
	if _, err := os.Stat(dir); err == nil {
		return nil, &DuplicateError{Name: name}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("database: creating %q: %w", name, err)
	}
	s := schema.New(name, kind)
	if err := schema.Save(dir, s); err != nil {
		return nil, fmt.Errorf("database: writing schema for %q: %w", name, err)
	}
	return &Database{Name: name, dir: dir, Schema: s, tables: make(map[string]*table.Table)}, nil
}

// Drop closes every open table handle and recursively deletes the database
// directory.
func Drop(db *Database) error {
	for _, t := range db.tables {
		t.Close()
	}
	db.tables = nil
	return os.RemoveAll(db.dir)
}

// GetTable returns an open handle for name, opening the backing file lazily
// on first reference. It returns *schema.TableNotFoundError if the schema
// has no such table.
func (db *Database) GetTable(name string) (*table.Table, error) {
	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	entry := db.Schema.FindTable(name)
	if entry == nil {
		return nil, &schema.TableNotFoundError{Table: name}
	}
	t, err := table.Open(name, dataFilePath(db.dir, name), entry.Columns)
	if err != nil {
		return nil, err
	}
	db.tables[name] = t
	return t, nil
}

// CreateTable adds a table to the schema and creates its empty backing
// file. The schema is persisted before the call returns.
func (db *Database) CreateTable(name string, columns []schema.Column) error {
	if err := db.Schema.CreateTable(name, columns); err != nil {
		return err
	}
	if err := schema.Save(db.dir, db.Schema); err != nil {
		return err
	}
	t, err := table.Open(name, dataFilePath(db.dir, name), columns)
	if err != nil {
		return err
	}
	db.tables[name] = t
	return nil
}

// DropTable removes a table from the schema and deletes its backing file.
func (db *Database) DropTable(name string) error {
	t, err := db.GetTable(name)
	if err != nil {
		return err
	}
	if err := db.Schema.DropTable(name); err != nil {
		return err
	}
	if err := schema.Save(db.dir, db.Schema); err != nil {
		return err
	}
	if err := t.Drop(); err != nil {
		return err
	}
	delete(db.tables, name)
	return nil
}

// AlterTable renames columns. Only the schema changes; row bytes are
// untouched since column names are never stored in a row.
func (db *Database) AlterTable(name string, renamings map[string]string) error {
	if err := db.Schema.AlterTable(name, renamings); err != nil {
		return err
	}
	if err := schema.Save(db.dir, db.Schema); err != nil {
		return err
	}
	if t, ok := db.tables[name]; ok {
		t.Rename(renamings)
	}
	return nil
}

// Dir returns the database's backing directory, for callers (the engine)
// that need to place additional sidecar files alongside schema.yaml, such
// as the sqlbackend's SQLite file.
func (db *Database) Dir() string {
	return db.dir
}

// TableNames returns the database's table names in schema order.
func (db *Database) TableNames() []string {
	names := make([]string, len(db.Schema.Tables))
	for i, t := range db.Schema.Tables {
		names[i] = t.Name
	}
	return names
}
