package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zknill/poorly/schema"
	"github.com/zknill/poorly/value"
)

func itemsTable(t *testing.T) *Table {
	t.Helper()
	dir := t.TempDir()
	cols := []schema.Column{
		{Name: "id", Type: value.KindInt},
		{Name: "name", Type: value.KindString},
		{Name: "price", Type: value.KindFloat},
	}
	tbl, err := Open("items", filepath.Join(dir, "items.ndb"), cols)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })
	return tbl
}

func TestInsertSelectRoundTrip(t *testing.T) {
	tbl := itemsTable(t)

	row, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread", "price": 2.5})
	require.NoError(t, err)
	assert.Equal(t, value.Int(1), row["id"])

	got, err := tbl.Select(nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, value.String("bread"), got[0]["name"])
	assert.Equal(t, value.Float(2.5), got[0]["price"])
}

func TestInsertRejectsMissingColumn(t *testing.T) {
	tbl := itemsTable(t)
	_, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread"})
	var missing *MissingColumnError
	assert.ErrorAs(t, err, &missing)
}

func TestInsertRejectsExtraColumn(t *testing.T) {
	tbl := itemsTable(t)
	_, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread", "price": 2.5, "weight": 1.0})
	var extra *ExtraColumnError
	assert.ErrorAs(t, err, &extra)
}

func TestUpdateInPlaceSameWidth(t *testing.T) {
	tbl := itemsTable(t)
	_, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread", "price": 2.5})
	require.NoError(t, err)

	updated, err := tbl.Update(
		map[string]interface{}{"price": 3.0},
		map[string]interface{}{"id": int64(1)},
	)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, value.Float(3.0), updated[0]["price"])

	got, err := tbl.Select(nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, value.Float(3.0), got[0]["price"])
}

func TestUpdateSizeChangeAppendsAndTombstones(t *testing.T) {
	tbl := itemsTable(t)
	_, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread", "price": 2.5})
	require.NoError(t, err)

	_, err = tbl.Update(
		map[string]interface{}{"name": "baguette"},
		map[string]interface{}{"id": int64(1)},
	)
	require.NoError(t, err)

	got, err := tbl.Select(nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, value.String("baguette"), got[0]["name"])

	var liveCount, total int
	err = tbl.scan(func(offset int64, deleted bool, values []value.Value) (bool, error) {
		total++
		if !deleted {
			liveCount++
		}
		return false, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, liveCount)
}

func TestDeleteIsIdempotent(t *testing.T) {
	tbl := itemsTable(t)
	_, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread", "price": 2.5})
	require.NoError(t, err)

	first, err := tbl.Delete(map[string]interface{}{"id": int64(1)})
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := tbl.Delete(map[string]interface{}{"id": int64(1)})
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestAlterPreservesData(t *testing.T) {
	tbl := itemsTable(t)
	_, err := tbl.Insert(map[string]interface{}{"id": int64(1), "name": "bread", "price": 2.5})
	require.NoError(t, err)

	tbl.columns[2].Name = "cost"
	tbl.kinds[2] = tbl.columns[2].Type

	got, err := tbl.Select(nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, value.Float(2.5), got[0]["cost"])
	_, hasOld := got[0]["price"]
	assert.False(t, hasOld)
}

func TestScanOrderMatchesInsertionOrder(t *testing.T) {
	tbl := itemsTable(t)
	for i := int64(1); i <= 3; i++ {
		_, err := tbl.Insert(map[string]interface{}{"id": i, "name": "x", "price": 1.0})
		require.NoError(t, err)
	}
	got, err := tbl.Select([]string{"id"}, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, value.Int(1), got[0]["id"])
	assert.Equal(t, value.Int(2), got[1]["id"])
	assert.Equal(t, value.Int(3), got[2]["id"])
}

func TestIntervalConditionOverCharInterval(t *testing.T) {
	dir := t.TempDir()
	cols := []schema.Column{
		{Name: "span", Type: value.KindCharInterval},
		{Name: "label", Type: value.KindString},
	}
	tbl, err := Open("ranges", filepath.Join(dir, "ranges.ndb"), cols)
	require.NoError(t, err)
	t.Cleanup(func() { tbl.Close() })

	_, err = tbl.Insert(map[string]interface{}{"span": []interface{}{"a", "j"}, "label": "a"})
	require.NoError(t, err)
	_, err = tbl.Insert(map[string]interface{}{"span": []interface{}{"e", "t"}, "label": "b"})
	require.NoError(t, err)

	got, err := tbl.Select([]string{"label"}, map[string]interface{}{"span": "g"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = tbl.Select([]string{"label"}, map[string]interface{}{"span": []interface{}{"k", "n"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, value.String("b"), got[0]["label"])
}

func TestDrop(t *testing.T) {
	dir := t.TempDir()
	cols := []schema.Column{{Name: "id", Type: value.KindInt}}
	path := filepath.Join(dir, "t.ndb")
	tbl, err := Open("t", path, cols)
	require.NoError(t, err)
	require.NoError(t, tbl.Drop())

	_, statErr := tbl.file.Stat()
	assert.Error(t, statErr)
}
