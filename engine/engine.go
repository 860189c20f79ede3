// Package engine holds the process-wide catalog of open databases and
// implements the single Execute(Query) dispatcher described in §4.6: it
// resolves the target database, decides whether the operation routes to
// the native table package or to sqlbackend, and serializes every call
// behind a single-permit semaphore since the engine forbids concurrent
// writers (§5).
package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/zknill/poorly/database"
	"github.com/zknill/poorly/join"
	"github.com/zknill/poorly/schema"
	"github.com/zknill/poorly/sqlbackend"
	"github.com/zknill/poorly/util"
	"github.com/zknill/poorly/value"
	"github.com/zknill/poorly/wire"
)

const sqliteFileName = "data.sqlite"

// Engine is the process-wide catalog of open databases plus their SQL
// backend connections (when applicable).
type Engine struct {
	rootPath string
	sem      *semaphore.Weighted

	databases map[string]*database.Database
	sqlConns  map[string]*sqlbackend.DB
}

// New returns an Engine rooted at rootPath. Databases are opened lazily on
// first reference.
func New(rootPath string) *Engine {
	return &Engine{
		rootPath:  rootPath,
		sem:       semaphore.NewWeighted(1),
		databases: make(map[string]*database.Database),
		sqlConns:  make(map[string]*sqlbackend.DB),
	}
}

// Execute holds exclusive access to the engine for its entire duration,
// dispatches q, and returns its result rows.
func (e *Engine) Execute(ctx context.Context, q wire.Query) (wire.Reply, error) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return wire.Reply{}, err
	}
	defer e.sem.Release(1)

	slog.Debug("execute", "database", q.Database, "table", q.Table, "kind", q.Kind)

	reply, err := e.execute(q)
	if err != nil {
		slog.Warn("execute failed", "database", q.Database, "table", q.Table, "kind", q.Kind, "error", err)
	}
	return reply, err
}

func (e *Engine) execute(q wire.Query) (wire.Reply, error) {
	switch q.Kind {
	case wire.QueryCreateDb:
		return e.createDb(q)
	case wire.QueryDropDb:
		return e.dropDb(q)
	}

	db, err := e.getDatabase(q.Database)
	if err != nil {
		return wire.Reply{}, err
	}

	switch q.Kind {
	case wire.QuerySelect:
		return e.selectQuery(db, q)
	case wire.QueryInsert:
		return e.insertQuery(db, q)
	case wire.QueryUpdate:
		return e.updateQuery(db, q)
	case wire.QueryDelete:
		return e.deleteQuery(db, q)
	case wire.QueryCreate:
		return e.createTable(db, q)
	case wire.QueryDrop:
		return e.dropTable(db, q)
	case wire.QueryAlter:
		return e.alterTable(db, q)
	case wire.QueryShowTables:
		return e.showTables(db)
	case wire.QueryJoin:
		return e.joinQuery(db, q)
	default:
		return wire.Reply{}, &UnknownQueryKindError{Kind: string(q.Kind)}
	}
}

func (e *Engine) getDatabase(name string) (*database.Database, error) {
	if db, ok := e.databases[name]; ok {
		return db, nil
	}
	db, err := database.Open(name, e.rootPath)
	if err != nil {
		return nil, err
	}
	e.databases[name] = db
	return db, nil
}

func (e *Engine) createDb(q wire.Query) (wire.Reply, error) {
	if _, ok := e.databases[q.Database]; ok {
		return wire.Reply{}, &database.DuplicateError{Name: q.Database}
	}
	kind := schema.BackendKind(q.BackendKind)
	if kind == "" {
		kind = schema.Poorly
	}
	db, err := database.Create(q.Database, e.rootPath, kind)
	if err != nil {
		return wire.Reply{}, err
	}
	e.databases[q.Database] = db
	return wire.Reply{}, nil
}

func (e *Engine) dropDb(q wire.Query) (wire.Reply, error) {
	db, err := e.getDatabase(q.Database)
	if err != nil {
		return wire.Reply{}, err
	}
	if sqlConn, ok := e.sqlConns[q.Database]; ok {
		sqlConn.Close()
		delete(e.sqlConns, q.Database)
	}
	if err := database.Drop(db); err != nil {
		return wire.Reply{}, err
	}
	delete(e.databases, q.Database)
	return wire.Reply{}, nil
}

// sqlDB returns the cached sqlbackend connection for db, opening it lazily
// at <dir>/data.sqlite on first reference.
func (e *Engine) sqlDB(db *database.Database) (*sqlbackend.DB, error) {
	if conn, ok := e.sqlConns[db.Name]; ok {
		return conn, nil
	}
	conn, err := sqlbackend.Open(filepath.Join(db.Dir(), sqliteFileName))
	if err != nil {
		return nil, err
	}
	e.sqlConns[db.Name] = conn
	return conn, nil
}

func toSchemaColumns(cols []wire.Column) []schema.Column {
	return util.TransformSlice(cols, func(c wire.Column) schema.Column {
		return schema.Column{Name: c.Name, Type: c.Kind}
	})
}

func (e *Engine) selectQuery(db *database.Database, q wire.Query) (wire.Reply, error) {
	if db.Schema.Kind == schema.Sqlite {
		t := db.Schema.FindTable(q.Table)
		if t == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: q.Table}
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		rows, err := conn.Select(q.Table, t.Columns, q.Columns, q.Conditions)
		if err != nil {
			return wire.Reply{}, err
		}
		return wire.RowsFromValues(rows), nil
	}

	tbl, err := db.GetTable(q.Table)
	if err != nil {
		return wire.Reply{}, err
	}
	rows, err := tbl.Select(q.Columns, q.Conditions)
	if err != nil {
		return wire.Reply{}, err
	}
	return wire.RowsFromValues(rows), nil
}

func (e *Engine) insertQuery(db *database.Database, q wire.Query) (wire.Reply, error) {
	if db.Schema.Kind == schema.Sqlite {
		t := db.Schema.FindTable(q.Table)
		if t == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: q.Table}
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		row, err := conn.Insert(q.Table, t.Columns, q.Values)
		if err != nil {
			return wire.Reply{}, err
		}
		return wire.RowsFromValues([]map[string]value.Value{row}), nil
	}

	tbl, err := db.GetTable(q.Table)
	if err != nil {
		return wire.Reply{}, err
	}
	row, err := tbl.Insert(q.Values)
	if err != nil {
		return wire.Reply{}, err
	}
	return wire.RowsFromValues([]map[string]value.Value{row}), nil
}

func (e *Engine) updateQuery(db *database.Database, q wire.Query) (wire.Reply, error) {
	if db.Schema.Kind == schema.Sqlite {
		t := db.Schema.FindTable(q.Table)
		if t == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: q.Table}
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		rows, err := conn.Update(q.Table, t.Columns, q.Set, q.Conditions)
		if err != nil {
			return wire.Reply{}, err
		}
		return wire.RowsFromValues(rows), nil
	}

	tbl, err := db.GetTable(q.Table)
	if err != nil {
		return wire.Reply{}, err
	}
	rows, err := tbl.Update(q.Set, q.Conditions)
	if err != nil {
		return wire.Reply{}, err
	}
	return wire.RowsFromValues(rows), nil
}

func (e *Engine) deleteQuery(db *database.Database, q wire.Query) (wire.Reply, error) {
	if db.Schema.Kind == schema.Sqlite {
		t := db.Schema.FindTable(q.Table)
		if t == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: q.Table}
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		rows, err := conn.Delete(q.Table, t.Columns, q.Conditions)
		if err != nil {
			return wire.Reply{}, err
		}
		return wire.RowsFromValues(rows), nil
	}

	tbl, err := db.GetTable(q.Table)
	if err != nil {
		return wire.Reply{}, err
	}
	rows, err := tbl.Delete(q.Conditions)
	if err != nil {
		return wire.Reply{}, err
	}
	return wire.RowsFromValues(rows), nil
}

func (e *Engine) createTable(db *database.Database, q wire.Query) (wire.Reply, error) {
	columns := toSchemaColumns(q.NewColumns)

	if db.Schema.Kind == schema.Sqlite {
		if err := db.Schema.CreateTable(q.Table, columns); err != nil {
			return wire.Reply{}, err
		}
		if err := schema.Save(db.Dir(), db.Schema); err != nil {
			return wire.Reply{}, err
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		if err := conn.CreateTable(q.Table, columns); err != nil {
			return wire.Reply{}, err
		}
		return wire.Reply{}, nil
	}

	if err := db.CreateTable(q.Table, columns); err != nil {
		return wire.Reply{}, err
	}
	return wire.Reply{}, nil
}

func (e *Engine) dropTable(db *database.Database, q wire.Query) (wire.Reply, error) {
	if db.Schema.Kind == schema.Sqlite {
		if db.Schema.FindTable(q.Table) == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: q.Table}
		}
		if err := db.Schema.DropTable(q.Table); err != nil {
			return wire.Reply{}, err
		}
		if err := schema.Save(db.Dir(), db.Schema); err != nil {
			return wire.Reply{}, err
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		if err := conn.DropTable(q.Table); err != nil {
			return wire.Reply{}, err
		}
		return wire.Reply{}, nil
	}

	if err := db.DropTable(q.Table); err != nil {
		return wire.Reply{}, err
	}
	return wire.Reply{}, nil
}

func (e *Engine) alterTable(db *database.Database, q wire.Query) (wire.Reply, error) {
	if err := db.AlterTable(q.Table, q.Renamings); err != nil {
		return wire.Reply{}, err
	}
	if db.Schema.Kind == schema.Sqlite {
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		for oldName, newName := range q.Renamings {
			if err := conn.RenameColumn(q.Table, oldName, newName); err != nil {
				return wire.Reply{}, err
			}
		}
	}
	return wire.Reply{}, nil
}

func (e *Engine) showTables(db *database.Database) (wire.Reply, error) {
	names := db.TableNames()
	rows := make([]map[string]value.Value, len(names))
	for i, name := range names {
		rows[i] = map[string]value.Value{"table": value.String(name)}
	}
	return wire.RowsFromValues(rows), nil
}

func (e *Engine) joinQuery(db *database.Database, q wire.Query) (wire.Reply, error) {
	leftName, rightName := q.Table, q.JoinTable

	if db.Schema.Kind == schema.Sqlite {
		left := db.Schema.FindTable(leftName)
		if left == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: leftName}
		}
		right := db.Schema.FindTable(rightName)
		if right == nil {
			return wire.Reply{}, &schema.TableNotFoundError{Table: rightName}
		}
		conn, err := e.sqlDB(db)
		if err != nil {
			return wire.Reply{}, err
		}
		rows, err := conn.Join(leftName, left.Columns, rightName, right.Columns, q.JoinOn, q.JoinConditions)
		if err != nil {
			return wire.Reply{}, err
		}
		return wire.RowsFromValues(rows), nil
	}

	leftTbl, err := db.GetTable(leftName)
	if err != nil {
		return wire.Reply{}, err
	}
	rightTbl, err := db.GetTable(rightName)
	if err != nil {
		return wire.Reply{}, err
	}

	leftConditions, rightConditions := splitJoinConditions(leftName, rightName, q.JoinConditions)
	leftRows, err := leftTbl.Select(nil, leftConditions)
	if err != nil {
		return wire.Reply{}, err
	}
	rightRows, err := rightTbl.Select(nil, rightConditions)
	if err != nil {
		return wire.Reply{}, err
	}

	rows, err := join.Execute(leftName, leftRows, rightName, rightRows, join.ParseOn(q.JoinOn))
	if err != nil {
		return wire.Reply{}, err
	}
	return wire.RowsFromValues(rows), nil
}

// splitJoinConditions partitions a qualified ("table.column") condition map
// into the two unqualified per-table maps table.Select expects.
func splitJoinConditions(leftTable, rightTable string, conditions map[string]interface{}) (left, right map[string]interface{}) {
	left = make(map[string]interface{})
	right = make(map[string]interface{})
	for qualified, v := range conditions {
		i := strings.IndexByte(qualified, '.')
		if i < 0 {
			continue
		}
		tbl, col := qualified[:i], qualified[i+1:]
		switch tbl {
		case leftTable:
			left[col] = v
		case rightTable:
			right[col] = v
		}
	}
	return left, right
}
