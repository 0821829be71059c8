package handles

import (
	"slices"

	"github.com/samber/lo"
)

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// ConnectionState is the lifecycle state of a connection.
type ConnectionState int

const (
	ConnAllocated             ConnectionState = iota // C2: allocated, not connected
	ConnNeedsData                                    // C3: reserved, SQLBrowseConnect needs data
	ConnConnected                                    // C4: connected, no statement allocated
	ConnStatementAllocated                           // C5: connected, statement allocated
	ConnTransactionInProgress                        // C6: reserved, manual-commit transaction open
)

func (s ConnectionState) String() string {
	switch s {
	case ConnAllocated:
		return "Allocated"
	case ConnNeedsData:
		return "NeedsData"
	case ConnConnected:
		return "Connected"
	case ConnStatementAllocated:
		return "StatementAllocated"
	case ConnTransactionInProgress:
		return "TransactionInProgress"
	default:
		return "Unknown"
	}
}

// IsReserved reports whether no driver operation currently moves a
// connection into s. Reserved states can still be stored.
func (s ConnectionState) IsReserved() bool {
	return s == ConnNeedsData || s == ConnTransactionInProgress
}

// ConnectionAttributes are the values behind SQLSetConnectAttr /
// SQLGetConnectAttr.
type ConnectionAttributes struct {
	// CurrentDB is the database selected with SQL_ATTR_CURRENT_CATALOG,
	// nil when none is selected.
	CurrentDB *string
}

// Connection is the payload of a connection handle.
type Connection struct {
	Attributes ConnectionAttributes
	State      ConnectionState
	Errors     DiagnosticsLog

	env        ID
	statements map[ID]struct{}
}

// NewConnection creates a connection allocated from env in the given state.
func NewConnection(env ID, state ConnectionState) Connection {
	return Connection{
		State:      state,
		env:        env,
		statements: make(map[ID]struct{}),
	}
}

// Env returns the environment this connection was allocated from.
func (c *Connection) Env() ID { return c.env }

// AddStatement records a child statement. It is a non-owning reference.
func (c *Connection) AddStatement(id ID) { c.statements[id] = struct{}{} }

// RemoveStatement forgets a child statement.
func (c *Connection) RemoveStatement(id ID) { delete(c.statements, id) }

// HasStatement reports whether id is a child of this connection.
func (c *Connection) HasStatement(id ID) bool {
	_, ok := c.statements[id]
	return ok
}

// NumStatements returns the size of the child set.
func (c *Connection) NumStatements() int { return len(c.statements) }

// Statements returns the child statement IDs in ascending order.
func (c *Connection) Statements() []ID {
	ids := lo.Keys(c.statements)
	slices.Sort(ids)
	return ids
}
