package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE widgets (id INT, name TEXT, active BOOL)")
	require.NoError(t, err)

	ct, ok := stmt.(*CreateTableStmt)
	require.True(t, ok)
	require.Equal(t, "widgets", ct.TableName)
	require.Equal(t, []ColumnDef{
		{Name: "id", Type: "INT"},
		{Name: "name", Type: "TEXT"},
		{Name: "active", Type: "BOOL"},
	}, ct.Columns)
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse("INSERT INTO widgets VALUES (1, 'gizmo', TRUE, NULL)")
	require.NoError(t, err)

	ins, ok := stmt.(*InsertStmt)
	require.True(t, ok)
	require.Equal(t, "widgets", ins.TableName)
	require.Equal(t, []any{int64(1), "gizmo", true, nil}, ins.Values)
}

func TestParseInsertNegativeAndFloat(t *testing.T) {
	stmt, err := Parse("INSERT INTO widgets VALUES (-7, 3.5)")
	require.NoError(t, err)

	ins, ok := stmt.(*InsertStmt)
	require.True(t, ok)
	require.Equal(t, []any{int64(-7), 3.5}, ins.Values)
}

func TestParseSelectStar(t *testing.T) {
	stmt, err := Parse("SELECT * FROM widgets")
	require.NoError(t, err)

	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok)
	require.Equal(t, "widgets", sel.TableName)
}

func TestParseAllowsTrailingSemicolon(t *testing.T) {
	stmt, err := Parse("SELECT * FROM widgets;")
	require.NoError(t, err)
	require.Equal(t, &SelectStmt{TableName: "widgets"}, stmt)
}

func TestParseRejectsUnknownStatement(t *testing.T) {
	_, err := Parse("DROP TABLE widgets")
	require.Error(t, err)
}

func TestParseRejectsTrailingGarbage(t *testing.T) {
	_, err := Parse("SELECT * FROM widgets extra")
	require.Error(t, err)
}

func TestParseRejectsMissingParen(t *testing.T) {
	_, err := Parse("INSERT INTO widgets VALUES 1, 2)")
	require.Error(t, err)
}

func TestParseRejectsUnterminatedString(t *testing.T) {
	_, err := Parse("INSERT INTO widgets VALUES ('oops)")
	require.Error(t, err)
}
