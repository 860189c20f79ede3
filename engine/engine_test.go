package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zknill/poorly/value"
	"github.com/zknill/poorly/wire"
)

func exec(t *testing.T, e *Engine, q wire.Query) wire.Reply {
	t.Helper()
	reply, err := e.Execute(context.Background(), q)
	require.NoError(t, err)
	return reply
}

func TestScenarioS1InsertSelect(t *testing.T) {
	e := New(t.TempDir())

	exec(t, e, wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})
	exec(t, e, wire.Query{Kind: wire.QueryCreate, Database: "shop", Table: "items", NewColumns: []wire.Column{
		{Name: "id", Kind: value.KindInt},
		{Name: "name", Kind: value.KindString},
		{Name: "price", Kind: value.KindFloat},
	}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "items", Values: map[string]interface{}{
		"id": int64(1), "name": "bread", "price": 2.5,
	}})

	reply := exec(t, e, wire.Query{Kind: wire.QuerySelect, Database: "shop", Table: "items"})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Int(1), reply.Rows[0]["id"].Value())
	assert.Equal(t, value.String("bread"), reply.Rows[0]["name"].Value())
	assert.Equal(t, value.Float(2.5), reply.Rows[0]["price"].Value())
}

func shopWithOneItem(t *testing.T) *Engine {
	t.Helper()
	e := New(t.TempDir())
	exec(t, e, wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})
	exec(t, e, wire.Query{Kind: wire.QueryCreate, Database: "shop", Table: "items", NewColumns: []wire.Column{
		{Name: "id", Kind: value.KindInt},
		{Name: "name", Kind: value.KindString},
		{Name: "price", Kind: value.KindFloat},
	}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "items", Values: map[string]interface{}{
		"id": int64(1), "name": "bread", "price": 2.5,
	}})
	return e
}

func TestScenarioS2Update(t *testing.T) {
	e := shopWithOneItem(t)

	reply := exec(t, e, wire.Query{
		Kind: wire.QueryUpdate, Database: "shop", Table: "items",
		Set:        map[string]interface{}{"price": 3.0},
		Conditions: map[string]interface{}{"id": int64(1)},
	})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Float(3.0), reply.Rows[0]["price"].Value())

	reply = exec(t, e, wire.Query{Kind: wire.QuerySelect, Database: "shop", Table: "items"})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Float(3.0), reply.Rows[0]["price"].Value())
}

func TestScenarioS3UpdateForcesAppendTombstone(t *testing.T) {
	e := shopWithOneItem(t)

	exec(t, e, wire.Query{
		Kind: wire.QueryUpdate, Database: "shop", Table: "items",
		Set: map[string]interface{}{"name": "baguette"},
	})

	reply := exec(t, e, wire.Query{Kind: wire.QuerySelect, Database: "shop", Table: "items"})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.String("baguette"), reply.Rows[0]["name"].Value())
}

func TestScenarioS4AlterRename(t *testing.T) {
	e := shopWithOneItem(t)

	exec(t, e, wire.Query{
		Kind: wire.QueryAlter, Database: "shop", Table: "items",
		Renamings: map[string]string{"price": "cost"},
	})

	reply := exec(t, e, wire.Query{Kind: wire.QuerySelect, Database: "shop", Table: "items"})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Float(2.5), reply.Rows[0]["cost"].Value())
	_, hasOld := reply.Rows[0]["price"]
	assert.False(t, hasOld)
}

func TestScenarioS6Join(t *testing.T) {
	e := New(t.TempDir())
	exec(t, e, wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})
	exec(t, e, wire.Query{Kind: wire.QueryCreate, Database: "shop", Table: "users", NewColumns: []wire.Column{
		{Name: "id", Kind: value.KindInt},
		{Name: "name", Kind: value.KindString},
	}})
	exec(t, e, wire.Query{Kind: wire.QueryCreate, Database: "shop", Table: "orders", NewColumns: []wire.Column{
		{Name: "uid", Kind: value.KindInt},
		{Name: "amt", Kind: value.KindFloat},
	}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "users", Values: map[string]interface{}{"id": int64(1), "name": "ada"}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "users", Values: map[string]interface{}{"id": int64(2), "name": "grace"}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "orders", Values: map[string]interface{}{"uid": int64(1), "amt": 9.5}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "orders", Values: map[string]interface{}{"uid": int64(1), "amt": 2.0}})
	exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "shop", Table: "orders", Values: map[string]interface{}{"uid": int64(2), "amt": 4.25}})

	reply := exec(t, e, wire.Query{
		Kind: wire.QueryJoin, Database: "shop", Table: "users", JoinTable: "orders",
		JoinOn: map[string]string{"users.id": "orders.uid"},
	})
	require.Len(t, reply.Rows, 3)
	assert.Equal(t, value.String("ada"), reply.Rows[0]["users.name"].Value())
	assert.Equal(t, value.Float(9.5), reply.Rows[0]["orders.amt"].Value())
}

func TestCreateDbRejectsDuplicate(t *testing.T) {
	e := New(t.TempDir())
	exec(t, e, wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})

	_, err := e.Execute(context.Background(), wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})
	assert.Error(t, err)
}

func TestDropDbThenReferenceFails(t *testing.T) {
	e := New(t.TempDir())
	exec(t, e, wire.Query{Kind: wire.QueryCreateDb, Database: "shop", BackendKind: "Poorly"})
	exec(t, e, wire.Query{Kind: wire.QueryDropDb, Database: "shop"})

	_, err := e.Execute(context.Background(), wire.Query{Kind: wire.QuerySelect, Database: "shop", Table: "items"})
	assert.Error(t, err)
}

func TestSqliteBackendRoutesToSQLEngine(t *testing.T) {
	e := New(t.TempDir())
	exec(t, e, wire.Query{Kind: wire.QueryCreateDb, Database: "accounts", BackendKind: "Sqlite"})
	exec(t, e, wire.Query{Kind: wire.QueryCreate, Database: "accounts", Table: "users", NewColumns: []wire.Column{
		{Name: "id", Kind: value.KindSerial},
		{Name: "email", Kind: value.KindEmail},
	}})

	reply := exec(t, e, wire.Query{Kind: wire.QueryInsert, Database: "accounts", Table: "users", Values: map[string]interface{}{"email": "a@b.com"}})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Serial(1), reply.Rows[0]["id"].Value())

	reply = exec(t, e, wire.Query{Kind: wire.QuerySelect, Database: "accounts", Table: "users"})
	require.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Email("a@b.com"), reply.Rows[0]["email"].Value())
}
