package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zknill/poorly/value"
)

func itemsColumns() []Column {
	return []Column{
		{Name: "id", Type: value.KindInt},
		{Name: "name", Type: value.KindString},
		{Name: "price", Type: value.KindFloat},
	}
}

func TestCreateTable(t *testing.T) {
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))
	assert.NotNil(t, s.FindTable("items"))
}

func TestCreateTableRejectsDuplicate(t *testing.T) {
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))
	err := s.CreateTable("items", itemsColumns())
	var dup *DuplicateTableError
	assert.ErrorAs(t, err, &dup)
}

func TestCreateTableRejectsEmptyColumns(t *testing.T) {
	s := New("shop", Poorly)
	err := s.CreateTable("items", nil)
	var empty *EmptyColumnsError
	assert.ErrorAs(t, err, &empty)
}

func TestCreateTableRejectsInvalidName(t *testing.T) {
	s := New("shop", Poorly)
	err := s.CreateTable("123bad", itemsColumns())
	var invalid *InvalidNameError
	assert.ErrorAs(t, err, &invalid)
}

func TestCreateTableRejectsWrongBackendKind(t *testing.T) {
	s := New("shop", Poorly)
	err := s.CreateTable("users", []Column{{Name: "email", Type: value.KindEmail}})
	var typeErr *value.TypeError
	assert.ErrorAs(t, err, &typeErr)

	sqlSchema := New("shop", Sqlite)
	err = sqlSchema.CreateTable("ranges", []Column{{Name: "span", Type: value.KindCharInterval}})
	assert.ErrorAs(t, err, &typeErr)
}

func TestDropTable(t *testing.T) {
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))
	require.NoError(t, s.DropTable("items"))
	assert.Nil(t, s.FindTable("items"))

	err := s.DropTable("items")
	var notFound *TableNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAlterTableRename(t *testing.T) {
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))

	require.NoError(t, s.AlterTable("items", map[string]string{"price": "cost"}))

	tbl := s.FindTable("items")
	assert.Nil(t, tbl.FindColumn("price"))
	require.NotNil(t, tbl.FindColumn("cost"))
	assert.Equal(t, []string{"id", "name", "cost"}, tbl.ColumnNames())
}

func TestAlterTableRejectsCollision(t *testing.T) {
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))
	err := s.AlterTable("items", map[string]string{"price": "name"})
	assert.Error(t, err)
}

func TestAlterTableRejectsUnknownColumn(t *testing.T) {
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))
	err := s.AlterTable("items", map[string]string{"nope": "cost"})
	var notFound *ColumnNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New("shop", Poorly)
	require.NoError(t, s.CreateTable("items", itemsColumns()))
	require.NoError(t, Save(dir, s))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, s.DBName, loaded.DBName)
	assert.Equal(t, s.Kind, loaded.Kind)
	require.Len(t, loaded.Tables, 1)
	assert.Equal(t, []string{"id", "name", "price"}, loaded.Tables[0].ColumnNames())
}
