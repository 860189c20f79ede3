package join

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zknill/poorly/value"
)

func TestExecuteEquiJoin(t *testing.T) {
	users := []map[string]value.Value{
		{"id": value.Int(1), "name": value.String("ada")},
		{"id": value.Int(2), "name": value.String("grace")},
	}
	orders := []map[string]value.Value{
		{"uid": value.Int(1), "amt": value.Float(9.5)},
		{"uid": value.Int(1), "amt": value.Float(2.0)},
		{"uid": value.Int(2), "amt": value.Float(4.25)},
	}

	on := ParseOn(map[string]string{"users.id": "orders.uid"})
	got, err := Execute("users", users, "orders", orders, on)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, value.Int(1), got[0]["users.id"])
	assert.Equal(t, value.String("ada"), got[0]["users.name"])
	assert.Equal(t, value.Int(1), got[0]["orders.uid"])
	assert.Equal(t, value.Float(9.5), got[0]["orders.amt"])

	assert.Equal(t, value.Float(2.0), got[1]["orders.amt"])
	assert.Equal(t, value.String("grace"), got[2]["users.name"])
}

func TestExecuteRejectsUnqualifiedOn(t *testing.T) {
	on := []On{{Left: "id", Right: "orders.uid"}}
	_, err := Execute("users", nil, "orders", nil, on)
	assert.Error(t, err)
}

func TestExecuteNoMatches(t *testing.T) {
	users := []map[string]value.Value{{"id": value.Int(1), "name": value.String("ada")}}
	orders := []map[string]value.Value{{"uid": value.Int(99), "amt": value.Float(1.0)}}

	on := ParseOn(map[string]string{"users.id": "orders.uid"})
	got, err := Execute("users", users, "orders", orders, on)
	require.NoError(t, err)
	assert.Empty(t, got)
}
