// Package sqlbackend implements the engine's alternate storage mode: the
// same table-level operations as the table package, delegated to an
// embedded SQLite database via modernc.org/sqlite (pure Go, no cgo),
// following the teacher's own embedded-SQLite database wrapper. Schemas
// pinned to schema.Sqlite route here instead of to the table package, and
// gain access to the email and serial column kinds that the native format
// does not support.
package sqlbackend

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/zknill/poorly/schema"
	"github.com/zknill/poorly/table"
	"github.com/zknill/poorly/value"
)

// DB wraps one database's SQLite file.
type DB struct {
	conn *sql.DB
}

// Open opens (creating if absent) the SQLite file at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: opening %q: %w", path, err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlbackend: pinging %q: %w", path, err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// columnDDL renders one column's DDL fragment per §9's mapping:
// int->INTEGER, float->REAL, string/email->TEXT, char->TEXT with a
// single-rune check constraint, serial->INTEGER PRIMARY KEY AUTOINCREMENT.
func columnDDL(c schema.Column) (string, error) {
	quoted := quoteIdent(c.Name)
	switch c.Type {
	case value.KindInt:
		return quoted + " INTEGER NOT NULL", nil
	case value.KindFloat:
		return quoted + " REAL NOT NULL", nil
	case value.KindString, value.KindEmail:
		return quoted + " TEXT NOT NULL", nil
	case value.KindChar:
		return fmt.Sprintf("%s TEXT NOT NULL CHECK (length(%s) = 1)", quoted, quoted), nil
	case value.KindSerial:
		return quoted + " INTEGER PRIMARY KEY AUTOINCREMENT", nil
	default:
		return "", &value.TypeError{Column: c.Name, Expected: c.Type, Got: "unsupported by sqlbackend"}
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTable issues the CREATE TABLE DDL for columns.
func (db *DB) CreateTable(tableName string, columns []schema.Column) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		d, err := columnDDL(c)
		if err != nil {
			return err
		}
		defs[i] = d
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tableName), strings.Join(defs, ", "))
	_, err := db.conn.Exec(stmt)
	if err != nil {
		return fmt.Errorf("sqlbackend: creating table %q: %w", tableName, err)
	}
	return nil
}

// DropTable issues DROP TABLE for tableName.
func (db *DB) DropTable(tableName string) error {
	_, err := db.conn.Exec("DROP TABLE " + quoteIdent(tableName))
	if err != nil {
		return fmt.Errorf("sqlbackend: dropping table %q: %w", tableName, err)
	}
	return nil
}

func findColumn(columns []schema.Column, name string) (schema.Column, bool) {
	for _, c := range columns {
		if c.Name == name {
			return c, true
		}
	}
	return schema.Column{}, false
}

// Insert coerces input against columns, rejecting serial columns supplied
// on input (server-assigned) and any column the table doesn't declare, and
// inserts the row. It returns the effective row, including the
// database-assigned serial value.
func (db *DB) Insert(tableName string, columns []schema.Column, input map[string]interface{}) (map[string]value.Value, error) {
	for k := range input {
		c, ok := findColumn(columns, k)
		if !ok {
			return nil, &table.ExtraColumnError{Table: tableName, Column: k}
		}
		if c.Type == value.KindSerial {
			return nil, &table.ExtraColumnError{Table: tableName, Column: k}
		}
	}

	var names []string
	var placeholders []string
	var args []interface{}
	for _, c := range columns {
		if c.Type == value.KindSerial {
			continue
		}
		raw, ok := input[c.Name]
		if !ok {
			return nil, &table.MissingColumnError{Table: tableName, Column: c.Name}
		}
		v, err := value.Coerce(c.Name, c.Type, raw)
		if err != nil {
			return nil, err
		}
		arg, err := toDriver(v)
		if err != nil {
			return nil, err
		}
		names = append(names, quoteIdent(c.Name))
		placeholders = append(placeholders, "?")
		args = append(args, arg)
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(tableName), strings.Join(names, ", "), strings.Join(placeholders, ", "))
	result, err := db.conn.Exec(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: inserting into %q: %w", tableName, err)
	}

	row := make(map[string]value.Value, len(columns))
	for _, c := range columns {
		if c.Type == value.KindSerial {
			id, err := result.LastInsertId()
			if err != nil {
				return nil, err
			}
			row[c.Name] = value.Serial(uint32(id))
			continue
		}
		v, err := value.Coerce(c.Name, c.Type, input[c.Name])
		if err != nil {
			return nil, err
		}
		row[c.Name] = v
	}
	return row, nil
}

// whereClause builds a parameterized WHERE clause from a qualified-free
// condition map (column -> raw literal), in stable column order.
func whereClause(tableName string, columns []schema.Column, conditions map[string]interface{}) (string, []interface{}, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}
	var parts []string
	var args []interface{}
	for _, c := range columns {
		raw, ok := conditions[c.Name]
		if !ok {
			continue
		}
		v, err := value.Coerce(c.Name, c.Type, raw)
		if err != nil {
			return "", nil, err
		}
		arg, err := toDriver(v)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, quoteIdent(c.Name)+" = ?")
		args = append(args, arg)
	}
	for col := range conditions {
		if _, ok := findColumn(columns, col); !ok {
			return "", nil, &table.ColumnNotFoundError{Table: tableName, Column: col}
		}
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

// Select runs a projected, filtered SELECT and decodes the rows back into
// value.Value by declared column kind.
func (db *DB) Select(tableName string, columns []schema.Column, projection []string, conditions map[string]interface{}) ([]map[string]value.Value, error) {
	selectCols := columns
	if len(projection) > 0 {
		selectCols = make([]schema.Column, 0, len(projection))
		for _, p := range projection {
			c, ok := findColumn(columns, p)
			if !ok {
				return nil, &table.ColumnNotFoundError{Table: tableName, Column: p}
			}
			selectCols = append(selectCols, c)
		}
	}

	names := make([]string, len(selectCols))
	for i, c := range selectCols {
		names[i] = quoteIdent(c.Name)
	}

	where, args, err := whereClause(tableName, columns, conditions)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s%s", strings.Join(names, ", "), quoteIdent(tableName), where)
	rows, err := db.conn.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: selecting from %q: %w", tableName, err)
	}
	defer rows.Close()

	return scanRows(rows, selectCols)
}

func scanRows(rows *sql.Rows, columns []schema.Column) ([]map[string]value.Value, error) {
	var results []map[string]value.Value
	dest := make([]interface{}, len(columns))
	raw := make([]interface{}, len(columns))
	for i := range dest {
		dest[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]value.Value, len(columns))
		for i, c := range columns {
			v, err := fromDriver(c.Type, raw[i])
			if err != nil {
				return nil, err
			}
			row[c.Name] = v
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// Update applies set to every row matching conditions and returns the
// post-mutation rows, via SQLite's RETURNING clause.
func (db *DB) Update(tableName string, columns []schema.Column, set map[string]interface{}, conditions map[string]interface{}) ([]map[string]value.Value, error) {
	if len(set) == 0 {
		return db.Select(tableName, columns, nil, conditions)
	}

	var assignments []string
	var args []interface{}
	for _, c := range columns {
		raw, ok := set[c.Name]
		if !ok {
			continue
		}
		if c.Type == value.KindSerial {
			return nil, &table.ColumnNotFoundError{Table: tableName, Column: c.Name}
		}
		v, err := value.Coerce(c.Name, c.Type, raw)
		if err != nil {
			return nil, err
		}
		arg, err := toDriver(v)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, quoteIdent(c.Name)+" = ?")
		args = append(args, arg)
	}
	for col := range set {
		if _, ok := findColumn(columns, col); !ok {
			return nil, &table.ColumnNotFoundError{Table: tableName, Column: col}
		}
	}

	where, whereArgs, err := whereClause(tableName, columns, conditions)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c.Name)
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s%s RETURNING %s", quoteIdent(tableName), strings.Join(assignments, ", "), where, strings.Join(names, ", "))

	rows, err := db.conn.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: updating %q: %w", tableName, err)
	}
	defer rows.Close()
	return scanRows(rows, columns)
}

// Delete removes every row matching conditions and returns the deleted
// rows, via SQLite's RETURNING clause.
func (db *DB) Delete(tableName string, columns []schema.Column, conditions map[string]interface{}) ([]map[string]value.Value, error) {
	where, args, err := whereClause(tableName, columns, conditions)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = quoteIdent(c.Name)
	}
	stmt := fmt.Sprintf("DELETE FROM %s%s RETURNING %s", quoteIdent(tableName), where, strings.Join(names, ", "))

	rows, err := db.conn.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: deleting from %q: %w", tableName, err)
	}
	defer rows.Close()
	return scanRows(rows, columns)
}

// Join runs a single JOIN ... ON query across two tables of the same
// database and returns qualified-key rows. conditions carries optional
// per-side filters keyed by qualified "table.column" names.
func (db *DB) Join(leftTable string, leftColumns []schema.Column, rightTable string, rightColumns []schema.Column, on map[string]string, conditions map[string]interface{}) ([]map[string]value.Value, error) {
	var onParts []string
	for l, r := range on {
		onParts = append(onParts, qualifySQL(l)+" = "+qualifySQL(r))
	}
	if len(onParts) == 0 {
		return nil, fmt.Errorf("sqlbackend: join requires at least one join_on pair")
	}

	var selectCols []string
	allColumns := make([]schema.Column, 0, len(leftColumns)+len(rightColumns))
	aliases := make([]string, 0, len(leftColumns)+len(rightColumns))
	for _, c := range leftColumns {
		selectCols = append(selectCols, quoteIdent(leftTable)+"."+quoteIdent(c.Name))
		allColumns = append(allColumns, c)
		aliases = append(aliases, leftTable+"."+c.Name)
	}
	for _, c := range rightColumns {
		selectCols = append(selectCols, quoteIdent(rightTable)+"."+quoteIdent(c.Name))
		allColumns = append(allColumns, c)
		aliases = append(aliases, rightTable+"."+c.Name)
	}

	whereParts, args, err := qualifiedWhere(leftTable, leftColumns, rightTable, rightColumns, conditions)
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s JOIN %s ON %s",
		strings.Join(selectCols, ", "), quoteIdent(leftTable), quoteIdent(rightTable), strings.Join(onParts, " AND "))
	if len(whereParts) > 0 {
		stmt += " WHERE " + strings.Join(whereParts, " AND ")
	}

	rows, err := db.conn.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlbackend: joining %q and %q: %w", leftTable, rightTable, err)
	}
	defer rows.Close()

	dest := make([]interface{}, len(allColumns))
	raw := make([]interface{}, len(allColumns))
	for i := range dest {
		dest[i] = &raw[i]
	}
	var results []map[string]value.Value
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(map[string]value.Value, len(allColumns))
		for i, c := range allColumns {
			v, err := fromDriver(c.Type, raw[i])
			if err != nil {
				return nil, err
			}
			row[aliases[i]] = v
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// qualifySQL turns a "table.column" wire reference into a quoted SQL
// reference ("table"."column").
func qualifySQL(qualified string) string {
	i := strings.IndexByte(qualified, '.')
	if i < 0 {
		return quoteIdent(qualified)
	}
	return quoteIdent(qualified[:i]) + "." + quoteIdent(qualified[i+1:])
}

// qualifiedWhere builds parameterized WHERE fragments from a join's
// qualified condition map, resolving each key against whichever side's
// column list it names.
func qualifiedWhere(leftTable string, leftColumns []schema.Column, rightTable string, rightColumns []schema.Column, conditions map[string]interface{}) ([]string, []interface{}, error) {
	var parts []string
	var args []interface{}
	for qualified, raw := range conditions {
		i := strings.IndexByte(qualified, '.')
		if i < 0 {
			return nil, nil, fmt.Errorf("sqlbackend: join condition %q is not qualified", qualified)
		}
		tbl, col := qualified[:i], qualified[i+1:]

		var c schema.Column
		var ok bool
		switch tbl {
		case leftTable:
			c, ok = findColumn(leftColumns, col)
		case rightTable:
			c, ok = findColumn(rightColumns, col)
		default:
			return nil, nil, fmt.Errorf("sqlbackend: join condition %q references neither %s nor %s", qualified, leftTable, rightTable)
		}
		if !ok {
			return nil, nil, &table.ColumnNotFoundError{Table: tbl, Column: col}
		}

		v, err := value.Coerce(col, c.Type, raw)
		if err != nil {
			return nil, nil, err
		}
		arg, err := toDriver(v)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, qualifySQL(qualified)+" = ?")
		args = append(args, arg)
	}
	return parts, args, nil
}

// RenameColumn applies an ALTER TABLE ... RENAME COLUMN to keep the
// physical schema in sync with a schema-level column rename.
func (db *DB) RenameColumn(tableName, oldName, newName string) error {
	stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", quoteIdent(tableName), quoteIdent(oldName), quoteIdent(newName))
	_, err := db.conn.Exec(stmt)
	if err != nil {
		return fmt.Errorf("sqlbackend: renaming column %q.%q: %w", tableName, oldName, err)
	}
	return nil
}

func toDriver(v value.Value) (interface{}, error) {
	switch v.Kind {
	case value.KindInt:
		return v.Int, nil
	case value.KindFloat:
		return v.Float, nil
	case value.KindString, value.KindEmail:
		return v.Str, nil
	case value.KindChar:
		return string(v.Char), nil
	case value.KindSerial:
		return int64(v.Serial), nil
	default:
		return nil, &value.TypeError{Expected: v.Kind, Got: "unsupported by sqlbackend"}
	}
}

func fromDriver(kind value.Kind, raw interface{}) (value.Value, error) {
	switch kind {
	case value.KindInt:
		n, err := asInt64(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(n), nil
	case value.KindFloat:
		switch v := raw.(type) {
		case float64:
			return value.Float(v), nil
		case int64:
			return value.Float(float64(v)), nil
		}
		return value.Value{}, fmt.Errorf("sqlbackend: unexpected driver type %T for float column", raw)
	case value.KindString, value.KindEmail:
		s, err := asString(raw)
		if err != nil {
			return value.Value{}, err
		}
		if kind == value.KindEmail {
			return value.Email(s), nil
		}
		return value.String(s), nil
	case value.KindChar:
		s, err := asString(raw)
		if err != nil {
			return value.Value{}, err
		}
		r := []rune(s)
		if len(r) != 1 {
			return value.Value{}, fmt.Errorf("sqlbackend: char column decoded to %q, not a single rune", s)
		}
		return value.Char(r[0]), nil
	case value.KindSerial:
		n, err := asInt64(raw)
		if err != nil {
			return value.Value{}, err
		}
		return value.Serial(uint32(n)), nil
	default:
		return value.Value{}, &value.TypeError{Expected: kind, Got: "unsupported by sqlbackend"}
	}
}

func asInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	default:
		return 0, fmt.Errorf("sqlbackend: unexpected driver type %T for int column", raw)
	}
}

func asString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("sqlbackend: unexpected driver type %T for text column", raw)
	}
}
