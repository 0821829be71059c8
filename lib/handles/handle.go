package handles

import (
	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
)

// Handle is the node behind every opaque token: exactly one of an
// environment, a connection or a statement, each guarded by its own lock.
//
// A Handle's identity (ID and Kind) never changes. Parent and child links
// are IDs, they never own the node they point to.
type Handle struct {
	id   ID
	kind odbc.HandleType

	env  *Locked[Env]
	conn *Locked[Connection]
	stmt *Locked[Statement]
}

// NewEnvHandle wraps an environment into a node with the given ID.
func NewEnvHandle(id ID, env Env) *Handle {
	return &Handle{id: id, kind: odbc.HandleEnv, env: newLocked(env)}
}

// NewConnectionHandle wraps a connection into a node with the given ID.
func NewConnectionHandle(id ID, conn Connection) *Handle {
	return &Handle{id: id, kind: odbc.HandleDbc, conn: newLocked(conn)}
}

// NewStatementHandle wraps a statement into a node with the given ID. The
// node owns a private copy of the attribute record, so the caller's stmt
// cannot reach it without the node lock.
func NewStatementHandle(id ID, stmt Statement) *Handle {
	attrs := DefaultStatementAttributes()
	if stmt.Attributes != nil {
		attrs = *stmt.Attributes
	}
	stmt.Attributes = &attrs
	return &Handle{id: id, kind: odbc.HandleStmt, stmt: newLocked(stmt)}
}

// ID returns the node's arena ID.
func (h *Handle) ID() ID { return h.id }

// Kind returns the variant of the node.
func (h *Handle) Kind() odbc.HandleType { return h.kind }

// --------------------------------------------------------------------------
// Downcasts
// --------------------------------------------------------------------------

// AsEnv returns the guarded environment if h is one.
func (h *Handle) AsEnv() (*Locked[Env], bool) {
	return h.env, h.kind == odbc.HandleEnv
}

// AsConnection returns the guarded connection if h is one.
func (h *Handle) AsConnection() (*Locked[Connection], bool) {
	return h.conn, h.kind == odbc.HandleDbc
}

// AsStatement returns the guarded statement if h is one.
func (h *Handle) AsStatement() (*Locked[Statement], bool) {
	return h.stmt, h.kind == odbc.HandleStmt
}

// --------------------------------------------------------------------------
// Diagnostics
// --------------------------------------------------------------------------

// AddDiagnostic appends rec to the node's diagnostics log under the
// exclusive lock. It works on poisoned nodes too.
func (h *Handle) AddDiagnostic(rec error) {
	h.writeDiagnostics(func(l *DiagnosticsLog) { l.Append(rec) })
}

// ClearDiagnostics empties the node's diagnostics log under the exclusive
// lock.
func (h *Handle) ClearDiagnostics() {
	h.writeDiagnostics(func(l *DiagnosticsLog) { l.Clear() })
}

// Diagnostics returns the node's records in FIFO order under the shared
// lock.
func (h *Handle) Diagnostics() []error {
	var out []error
	switch h.kind {
	case odbc.HandleEnv:
		h.env.readAlways(func(e *Env) { out = e.Errors.Records() })
	case odbc.HandleDbc:
		h.conn.readAlways(func(c *Connection) { out = c.Errors.Records() })
	case odbc.HandleStmt:
		h.stmt.readAlways(func(s *Statement) { out = s.Errors.Records() })
	}
	return out
}

func (h *Handle) writeDiagnostics(fn func(l *DiagnosticsLog)) {
	switch h.kind {
	case odbc.HandleEnv:
		h.env.writeAlways(func(e *Env) { fn(&e.Errors) })
	case odbc.HandleDbc:
		h.conn.writeAlways(func(c *Connection) { fn(&c.Errors) })
	case odbc.HandleStmt:
		h.stmt.writeAlways(func(s *Statement) { fn(&s.Errors) })
	}
}

// --------------------------------------------------------------------------
// Poisoning
// --------------------------------------------------------------------------

// Poisoned reports whether a writer panicked while holding the node's lock.
func (h *Handle) Poisoned() bool {
	switch h.kind {
	case odbc.HandleEnv:
		return h.env.Poisoned()
	case odbc.HandleDbc:
		return h.conn.Poisoned()
	case odbc.HandleStmt:
		return h.stmt.Poisoned()
	}
	return false
}

// Healthy returns nil for a usable node. For a poisoned node it returns
// odbcerr.ErrPoisoned and makes sure the fatal HY000 record is the newest
// diagnostic, so the entry point can answer SQL_ERROR and the application
// finds the reason with SQLGetDiagRec. Repeated calls do not stack records.
func (h *Handle) Healthy() error {
	if !h.Poisoned() {
		return nil
	}
	h.writeDiagnostics(func(l *DiagnosticsLog) {
		if last, ok := l.Last(); !ok || last != error(odbcerr.ErrPoisoned) {
			l.Append(odbcerr.ErrPoisoned)
		}
	})
	return odbcerr.ErrPoisoned
}

// --------------------------------------------------------------------------
// Links
// --------------------------------------------------------------------------

// Parent returns the ID of the node this one was allocated from, the zero
// ID for an environment.
func (h *Handle) Parent() ID {
	var id ID
	switch h.kind {
	case odbc.HandleDbc:
		h.conn.readAlways(func(c *Connection) { id = c.Env() })
	case odbc.HandleStmt:
		h.stmt.readAlways(func(s *Statement) { id = s.Connection() })
	}
	return id
}

// Children returns the node's child IDs in ascending order.
func (h *Handle) Children() []ID {
	var ids []ID
	switch h.kind {
	case odbc.HandleEnv:
		h.env.readAlways(func(e *Env) { ids = e.Connections() })
	case odbc.HandleDbc:
		h.conn.readAlways(func(c *Connection) { ids = c.Statements() })
	}
	return ids
}

// RemoveChild drops id from the child set. When the set becomes empty the
// node falls back to the state it had before its first child was allocated:
// an environment returns to EnvAllocated, a connection in
// ConnStatementAllocated returns to ConnConnected.
//
// RemoveChild works on poisoned nodes so that a failed subtree can still be
// torn down.
func (h *Handle) RemoveChild(id ID) {
	switch h.kind {
	case odbc.HandleEnv:
		h.env.writeAlways(func(e *Env) {
			e.RemoveConnection(id)
			if e.NumConnections() == 0 {
				e.State = EnvAllocated
			}
		})
	case odbc.HandleDbc:
		h.conn.writeAlways(func(c *Connection) {
			c.RemoveStatement(id)
			if c.NumStatements() == 0 && c.State == ConnStatementAllocated {
				c.State = ConnConnected
			}
		})
	}
}
