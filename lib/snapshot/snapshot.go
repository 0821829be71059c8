package snapshot

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dODBC/lib/handles"
	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
	"github.com/ValentinKolb/dODBC/lib/registry"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/errors"
)

var log = logger.GetLogger("snapshot")

// Node is a point-in-time copy of one handle and its subtree.
type Node struct {
	Kind        string            `json:"kind" msgpack:"kind"`
	ID          string            `json:"id" msgpack:"id"`
	Token       uint64            `json:"token" msgpack:"token"`
	State       string            `json:"state" msgpack:"state"`
	Poisoned    bool              `json:"poisoned" msgpack:"poisoned"`
	Attributes  map[string]string `json:"attributes" msgpack:"attributes"`
	Diagnostics []Diagnostic      `json:"diagnostics" msgpack:"diagnostics"`
	Children    []*Node           `json:"children" msgpack:"children"`
}

// Diagnostic is the reportable part of a diagnostic record.
type Diagnostic struct {
	SQLState    string `json:"sqlState" msgpack:"sqlState"`
	NativeError int32  `json:"nativeError" msgpack:"nativeError"`
	Message     string `json:"message" msgpack:"message"`
}

// Take copies the subtree rooted at token. Nodes are locked one at a time,
// parents before children, so the copy is consistent per node but not across
// the tree. Children freed while the walk is running are skipped.
func Take(reg *registry.Registry, token odbc.Handle) (*Node, error) {
	h, err := reg.Resolve(token)
	if err != nil {
		return nil, errors.Wrapf(err, "snapshot of handle %#x", uintptr(token))
	}
	return take(reg, h, token), nil
}

// TakeAll copies every environment of the registry.
func TakeAll(reg *registry.Registry) []*Node {
	var out []*Node
	for _, henv := range reg.Environments() {
		n, err := Take(reg, odbc.Handle(henv))
		if err != nil {
			// freed between listing and walking
			log.Debugf("skipping environment: %v", err)
			continue
		}
		out = append(out, n)
	}
	return out
}

func take(reg *registry.Registry, h *handles.Handle, token odbc.Handle) *Node {
	n := &Node{
		Kind:        h.Kind().String(),
		ID:          h.ID().String(),
		Token:       uint64(token),
		Poisoned:    h.Poisoned(),
		Attributes:  make(map[string]string),
		Diagnostics: make([]Diagnostic, 0),
		Children:    make([]*Node, 0),
	}

	if err := readNode(h, n); err != nil {
		n.State = "Poisoned"
	}

	for _, rec := range h.Diagnostics() {
		n.Diagnostics = append(n.Diagnostics, toDiagnostic(rec))
	}

	for _, childID := range h.Children() {
		child, ok := reg.Lookup(childID)
		if !ok {
			continue
		}
		childToken, ok := reg.TokenOf(childID)
		if !ok {
			continue
		}
		n.Children = append(n.Children, take(reg, child, childToken))
	}
	return n
}

// readNode fills state and attributes under the node's shared lock
func readNode(h *handles.Handle, n *Node) error {
	if env, ok := h.AsEnv(); ok {
		return env.Read(func(e *handles.Env) {
			n.State = e.State.String()
			a := e.Attributes
			n.Attributes["SQL_ATTR_ODBC_VERSION"] = a.ODBCVersion.String()
			n.Attributes["SQL_ATTR_OUTPUT_NTS"] = a.OutputNTS.String()
			n.Attributes["SQL_ATTR_CONNECTION_POOLING"] = a.ConnectionPooling.String()
			n.Attributes["SQL_ATTR_CP_MATCH"] = a.CPMatch.String()
		})
	}
	if conn, ok := h.AsConnection(); ok {
		return conn.Read(func(c *handles.Connection) {
			n.State = c.State.String()
			if c.Attributes.CurrentDB != nil {
				n.Attributes["SQL_ATTR_CURRENT_CATALOG"] = *c.Attributes.CurrentDB
			}
		})
	}
	if stmt, ok := h.AsStatement(); ok {
		return stmt.Read(func(s *handles.Statement) {
			n.State = s.State.String()
			readStatementAttributes(s.Attributes, n.Attributes)
		})
	}
	return nil
}

// readStatementAttributes copies the full statement attribute record.
// Application pointers and descriptors are printed as hex addresses.
func readStatementAttributes(a *handles.StatementAttributes, out map[string]string) {
	num := func(name string, v uint64) { out[name] = strconv.FormatUint(v, 10) }
	ptr := func(name string, v uintptr) { out[name] = fmt.Sprintf("%#x", v) }

	ptr("SQL_ATTR_APP_ROW_DESC", a.AppRowDesc)
	ptr("SQL_ATTR_APP_PARAM_DESC", a.AppParamDesc)
	num("SQL_ATTR_ASYNC_ENABLE", uint64(a.AsyncEnable))
	ptr("SQL_ATTR_ASYNC_STMT_EVENT", a.AsyncStmtEvent)
	num("SQL_ATTR_CURSOR_SCROLLABLE", uint64(a.CursorScrollable))
	num("SQL_ATTR_CURSOR_SENSITIVITY", uint64(a.CursorSensitivity))
	num("SQL_ATTR_CONCURRENCY", uint64(a.Concurrency))
	num("SQL_ATTR_CURSOR_TYPE", uint64(a.CursorType))
	out["SQL_ATTR_ENABLE_AUTO_IPD"] = a.EnableAutoIPD.String()
	ptr("SQL_ATTR_FETCH_BOOKMARK_PTR", a.FetchBookmarkPtr)
	ptr("SQL_ATTR_IMP_ROW_DESC", a.ImpRowDesc)
	ptr("SQL_ATTR_IMP_PARAM_DESC", a.ImpParamDesc)
	num("SQL_ATTR_MAX_LENGTH", a.MaxLength)
	num("SQL_ATTR_MAX_ROWS", a.MaxRows)
	num("SQL_ATTR_NOSCAN", uint64(a.NoScan))
	ptr("SQL_ATTR_PARAM_BIND_OFFSET_PTR", a.ParamBindOffsetPtr)
	num("SQL_ATTR_PARAM_BIND_TYPE", a.ParamBindType)
	ptr("SQL_ATTR_PARAM_OPERATION_PTR", a.ParamOperationPtr)
	ptr("SQL_ATTR_PARAMS_PROCESSED_PTR", a.ParamProcessedPtr)
	ptr("SQL_ATTR_PARAM_STATUS_PTR", a.ParamStatusPtr)
	num("SQL_ATTR_PARAMSET_SIZE", a.ParamsetSize)
	num("SQL_ATTR_QUERY_TIMEOUT", a.QueryTimeout)
	num("SQL_ATTR_RETRIEVE_DATA", uint64(a.RetrieveData))
	num("SQL_ATTR_ROW_ARRAY_SIZE", a.RowArraySize)
	ptr("SQL_ATTR_ROW_BIND_OFFSET_PTR", a.RowBindOffsetPtr)
	num("SQL_ATTR_ROW_BIND_TYPE", a.RowBindType)
	num("SQL_ATTR_ROW_NUMBER", a.RowNumber)
	ptr("SQL_ATTR_ROW_OPERATION_PTR", a.RowOperationPtr)
	ptr("SQL_ATTR_ROW_STATUS_PTR", a.RowStatusPtr)
	ptr("SQL_ATTR_ROWS_FETCHED_PTR", a.RowsFetchedPtr)
	num("SQL_ATTR_SIMULATE_CURSOR", uint64(a.SimulateCursor))
	num("SQL_ATTR_USE_BOOKMARKS", uint64(a.UseBookmarks))
}

// toDiagnostic extracts the reportable fields of a record. Records that are
// not *odbcerr.Error, including nil records, are reported as general errors.
func toDiagnostic(rec error) Diagnostic {
	if rec == nil {
		return Diagnostic{SQLState: odbcerr.StateGeneralError, Message: "nil record"}
	}
	if e, ok := odbcerr.Extract(rec); ok {
		return Diagnostic{SQLState: e.SQLState, NativeError: e.NativeError, Message: e.Msg}
	}
	return Diagnostic{SQLState: odbcerr.StateGeneralError, Message: rec.Error()}
}
