package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zknill/poorly/value"
)

func TestTypedValueRoundTrip(t *testing.T) {
	cases := []value.Value{
		value.Int(42),
		value.Float(3.5),
		value.Char('x'),
		value.String("hello"),
		value.Email("a@b.com"),
		value.Serial(7),
		value.CharInterval('a', 'z'),
		value.StringInterval("a", "z"),
	}
	for _, v := range cases {
		got := FromValue(v).Value()
		assert.True(t, v.Equal(got), "round trip mismatch for %v", v)
	}
}

func TestRowsFromValues(t *testing.T) {
	rows := []map[string]value.Value{
		{"id": value.Int(1), "name": value.String("bread")},
	}
	reply := RowsFromValues(rows)
	assert.Len(t, reply.Rows, 1)
	assert.Equal(t, value.Int(1), reply.Rows[0]["id"].Value())
}
