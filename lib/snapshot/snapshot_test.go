package snapshot

import (
	"strconv"
	"testing"

	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/handles"
	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
	"github.com/ValentinKolb/dODBC/lib/registry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree allocates env → conn → stmt and records one diagnostic per level
func buildTree(t *testing.T) (*registry.Registry, odbc.HEnv) {
	t.Helper()
	reg := registry.New(common.DefaultDriverConfig())

	henv, err := reg.AllocEnv()
	require.NoError(t, err)
	hdbc, err := reg.AllocConnection(henv)
	require.NoError(t, err)

	connH, err := reg.ResolveConnection(hdbc)
	require.NoError(t, err)
	db := "inventory"
	c, _ := connH.AsConnection()
	require.NoError(t, c.Write(func(c *handles.Connection) {
		c.State = handles.ConnConnected
		c.Attributes.CurrentDB = &db
	}))

	hstmt, err := reg.AllocStatement(hdbc)
	require.NoError(t, err)
	stmtH, err := reg.ResolveStatement(hstmt)
	require.NoError(t, err)

	connH.AddDiagnostic(odbcerr.General("test").WithNative(7))
	stmtH.AddDiagnostic(errors.New("plain error"))
	return reg, henv
}

func TestTake(t *testing.T) {
	reg, henv := buildTree(t)

	root, err := Take(reg, odbc.Handle(henv))
	require.NoError(t, err)

	assert.Equal(t, "SQL_HANDLE_ENV", root.Kind)
	assert.Equal(t, uint64(henv), root.Token)
	assert.Equal(t, "ConnectionAllocated", root.State)
	assert.Equal(t, "SQL_OV_ODBC3_80", root.Attributes["SQL_ATTR_ODBC_VERSION"])
	assert.Equal(t, "SQL_CP_STRICT_MATCH", root.Attributes["SQL_ATTR_CP_MATCH"])
	assert.Empty(t, root.Diagnostics)
	require.Len(t, root.Children, 1)

	conn := root.Children[0]
	assert.Equal(t, "SQL_HANDLE_DBC", conn.Kind)
	assert.Equal(t, "StatementAllocated", conn.State)
	assert.Equal(t, "inventory", conn.Attributes["SQL_ATTR_CURRENT_CATALOG"])
	assert.Equal(t, []Diagnostic{{SQLState: "HY000", NativeError: 7, Message: "test"}}, conn.Diagnostics)
	require.Len(t, conn.Children, 1)

	stmt := conn.Children[0]
	assert.Equal(t, "SQL_HANDLE_STMT", stmt.Kind)
	assert.Equal(t, "Allocated", stmt.State)
	assert.Equal(t, "1", stmt.Attributes["SQL_ATTR_ROW_ARRAY_SIZE"])
	assert.Equal(t, "0x0", stmt.Attributes["SQL_ATTR_ROWS_FETCHED_PTR"])
	assert.Equal(t, []Diagnostic{{SQLState: "HY000", Message: "plain error"}}, stmt.Diagnostics)
	assert.Empty(t, stmt.Children)
}

func TestTakeInvalid(t *testing.T) {
	reg := registry.New(common.DefaultDriverConfig())
	_, err := Take(reg, odbc.Handle(42))
	assert.True(t, odbcerr.Is(err, odbcerr.RetCInvalidHandle))
}

func TestTakePoisoned(t *testing.T) {
	reg, henv := buildTree(t)
	envH, err := reg.ResolveEnv(henv)
	require.NoError(t, err)
	e, _ := envH.AsEnv()
	require.Error(t, e.Write(func(*handles.Env) { panic("boom") }))

	root, err := Take(reg, odbc.Handle(henv))
	require.NoError(t, err)
	assert.True(t, root.Poisoned)
	assert.Equal(t, "Poisoned", root.State)
	assert.Empty(t, root.Attributes)
	assert.Len(t, root.Children, 1)
}

func TestTakeAll(t *testing.T) {
	reg, _ := buildTree(t)
	_, err := reg.AllocEnv()
	require.NoError(t, err)

	all := TakeAll(reg)
	require.Len(t, all, 2)
	assert.Len(t, all[0].Children, 1)
	assert.Empty(t, all[1].Children)
}

func TestSerializers(t *testing.T) {
	reg, henv := buildTree(t)
	root, err := Take(reg, odbc.Handle(henv))
	require.NoError(t, err)

	for _, format := range []common.SnapshotFormat{common.SnapshotFormatJSON, common.SnapshotFormatMsgpack} {
		t.Run(string(format), func(t *testing.T) {
			s, err := NewSerializer(format)
			require.NoError(t, err)

			data, err := s.Serialize(root)
			require.NoError(t, err)

			var decoded Node
			require.NoError(t, s.Deserialize(data, &decoded))

			assert.Equal(t, root.Kind, decoded.Kind)
			assert.Equal(t, root.Token, decoded.Token)
			assert.Equal(t, root.Attributes, decoded.Attributes)
			require.Len(t, decoded.Children, 1)
			conn := decoded.Children[0]
			assert.Equal(t, root.Children[0].Diagnostics, conn.Diagnostics)
			require.Len(t, conn.Children, 1)
			assert.Equal(t, root.Children[0].Children[0].Attributes, conn.Children[0].Attributes)
		})
	}

	_, err = NewSerializer("yaml")
	assert.Error(t, err)
}

func TestTakeNilRecords(t *testing.T) {
	reg, henv := buildTree(t)
	envH, err := reg.ResolveEnv(henv)
	require.NoError(t, err)

	var typedNil *odbcerr.Error
	envH.AddDiagnostic(nil)
	envH.AddDiagnostic(typedNil)

	var root *Node
	require.NotPanics(t, func() {
		root, err = Take(reg, odbc.Handle(henv))
	})
	require.NoError(t, err)
	assert.Equal(t, []Diagnostic{
		{SQLState: "HY000", Message: "nil record"},
		{SQLState: "HY000", Message: "nil record"},
	}, root.Diagnostics)

	require.NotPanics(t, func() { TakeAll(reg) })
}

func TestTakeStatementAttributes(t *testing.T) {
	reg, henv := buildTree(t)
	root, err := Take(reg, odbc.Handle(henv))
	require.NoError(t, err)
	stmt := root.Children[0].Children[0]

	defaults := handles.DefaultStatementAttributes()
	assert.Len(t, stmt.Attributes, 32)
	assert.Equal(t, "SQL_FALSE", stmt.Attributes["SQL_ATTR_ENABLE_AUTO_IPD"])
	assert.Equal(t, strconv.FormatUint(uint64(defaults.NoScan), 10), stmt.Attributes["SQL_ATTR_NOSCAN"])
	assert.Equal(t, strconv.FormatUint(uint64(defaults.RetrieveData), 10), stmt.Attributes["SQL_ATTR_RETRIEVE_DATA"])
	assert.Equal(t, strconv.FormatUint(uint64(defaults.SimulateCursor), 10), stmt.Attributes["SQL_ATTR_SIMULATE_CURSOR"])
	assert.Equal(t, "0x0", stmt.Attributes["SQL_ATTR_APP_ROW_DESC"])
	assert.Equal(t, "0x0", stmt.Attributes["SQL_ATTR_PARAM_STATUS_PTR"])

	// values set on the node show up in the copy
	stmtH, err := reg.ResolveStatement(odbc.HStmt(stmt.Token))
	require.NoError(t, err)
	s, _ := stmtH.AsStatement()
	require.NoError(t, s.Write(func(s *handles.Statement) {
		s.Attributes.ParamStatusPtr = 0x1000
		s.Attributes.RowNumber = 5
	}))

	root, err = Take(reg, odbc.Handle(henv))
	require.NoError(t, err)
	stmt = root.Children[0].Children[0]
	assert.Equal(t, "0x1000", stmt.Attributes["SQL_ATTR_PARAM_STATUS_PTR"])
	assert.Equal(t, "5", stmt.Attributes["SQL_ATTR_ROW_NUMBER"])
}
