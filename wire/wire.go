// Package wire defines the transport-independent contract between a
// frontend (httpapi, rpcapi, or any future one) and the engine: the Query
// a frontend builds, the TypedValue each column value renders as, and the
// Reply the engine returns. Frontends translate requests into a Query and
// translate a Reply back into their own wire format; nothing in this
// package knows about HTTP or gRPC.
package wire

import "github.com/zknill/poorly/value"

// QueryKind discriminates the eleven Query variants.
type QueryKind string

const (
	QuerySelect     QueryKind = "select"
	QueryInsert     QueryKind = "insert"
	QueryUpdate     QueryKind = "update"
	QueryDelete     QueryKind = "delete"
	QueryCreate     QueryKind = "create"
	QueryCreateDb   QueryKind = "create_db"
	QueryDrop       QueryKind = "drop"
	QueryDropDb     QueryKind = "drop_db"
	QueryAlter      QueryKind = "alter"
	QueryShowTables QueryKind = "show_tables"
	QueryJoin       QueryKind = "join"
)

// Column is a create column declaration: a name paired with a value.Kind.
// value.Kind's underlying type is string, so the kind travels over JSON as
// its plain name ("int", "char_invl", ...).
type Column struct {
	Name string
	Kind value.Kind
}

// Query is the tagged union every frontend builds and every engine
// operation consumes. Only the fields relevant to Kind are meaningful.
type Query struct {
	Kind QueryKind

	Database string
	Table    string

	// Select / Update / Delete
	Columns    []string               // Select projection; empty means all
	Conditions map[string]interface{} // column -> untyped literal

	// Insert
	Values map[string]interface{}

	// Update
	Set map[string]interface{}

	// Create
	NewColumns []Column

	// CreateDb
	BackendKind string // "Poorly" or "Sqlite"

	// Alter
	Renamings map[string]string

	// Join
	JoinTable      string                 // second table name
	JoinOn         map[string]string      // "table1.col" -> "table2.col"
	JoinConditions map[string]interface{} // qualified "table.col" -> literal
}

// TypedValue is the wire rendering of a value.Value: exactly one payload
// field is meaningful, selected by Kind.
type TypedValue struct {
	Kind value.Kind

	Int            int64
	Float          float64
	Str            string
	Char           rune
	Serial         uint32
	CharLow        rune
	CharHigh       rune
	StrLow         string
	StrHigh        string
}

// FromValue renders a value.Value as its wire TypedValue.
func FromValue(v value.Value) TypedValue {
	return TypedValue{
		Kind:     v.Kind,
		Int:      v.Int,
		Float:    v.Float,
		Str:      v.Str,
		Char:     v.Char,
		Serial:   v.Serial,
		CharLow:  v.CharLow,
		CharHigh: v.CharHigh,
		StrLow:   v.StrLow,
		StrHigh:  v.StrHigh,
	}
}

// Value converts a wire TypedValue back into a value.Value.
func (tv TypedValue) Value() value.Value {
	return value.Value{
		Kind:     tv.Kind,
		Int:      tv.Int,
		Float:    tv.Float,
		Str:      tv.Str,
		Char:     tv.Char,
		Serial:   tv.Serial,
		CharLow:  tv.CharLow,
		CharHigh: tv.CharHigh,
		StrLow:   tv.StrLow,
		StrHigh:  tv.StrHigh,
	}
}

// Reply is the result of a successful Execute call: a list of column-keyed
// row maps, in the order the originating operation produced them.
type Reply struct {
	Rows []map[string]TypedValue
}

// RowsFromValues renders a slice of column-keyed value.Value row maps as a
// Reply, the shape every table/join/sqlbackend operation returns.
func RowsFromValues(rows []map[string]value.Value) Reply {
	out := make([]map[string]TypedValue, len(rows))
	for i, row := range rows {
		tv := make(map[string]TypedValue, len(row))
		for k, v := range row {
			tv[k] = FromValue(v)
		}
		out[i] = tv
	}
	return Reply{Rows: out}
}
