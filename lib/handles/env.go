package handles

import (
	"slices"

	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/samber/lo"
)

// --------------------------------------------------------------------------
// Environment
// --------------------------------------------------------------------------

// EnvState is the lifecycle state of an environment.
type EnvState int

const (
	EnvAllocated           EnvState = iota // E1: no connection allocated
	EnvConnectionAllocated                 // E2: at least one connection allocated
)

func (s EnvState) String() string {
	switch s {
	case EnvAllocated:
		return "Allocated"
	case EnvConnectionAllocated:
		return "ConnectionAllocated"
	default:
		return "Unknown"
	}
}

// EnvAttributes are the values behind SQLSetEnvAttr / SQLGetEnvAttr.
type EnvAttributes struct {
	ODBCVersion       odbc.OdbcVersion
	OutputNTS         odbc.SqlBool
	ConnectionPooling odbc.ConnectionPooling
	CPMatch           odbc.CpMatch
}

// DefaultEnvAttributes returns the attributes of a fresh environment.
func DefaultEnvAttributes() EnvAttributes {
	return EnvAttributes{
		ODBCVersion:       odbc.OdbcVersion3_80,
		OutputNTS:         odbc.True,
		ConnectionPooling: odbc.PoolingOff,
		CPMatch:           odbc.CpStrictMatch,
	}
}

// Env is the payload of an environment handle.
type Env struct {
	Attributes EnvAttributes
	State      EnvState
	// Errors is the diagnostics log. Use Handle.AddDiagnostic and
	// Handle.ClearDiagnostics to mutate it.
	Errors DiagnosticsLog

	connections map[ID]struct{}
}

// NewEnv creates an environment in the given state with default attributes.
func NewEnv(state EnvState) Env {
	return Env{
		Attributes:  DefaultEnvAttributes(),
		State:       state,
		connections: make(map[ID]struct{}),
	}
}

// AddConnection records a child connection. It is a non-owning reference.
func (e *Env) AddConnection(id ID) { e.connections[id] = struct{}{} }

// RemoveConnection forgets a child connection.
func (e *Env) RemoveConnection(id ID) { delete(e.connections, id) }

// HasConnection reports whether id is a child of this environment.
func (e *Env) HasConnection(id ID) bool {
	_, ok := e.connections[id]
	return ok
}

// NumConnections returns the size of the child set.
func (e *Env) NumConnections() int { return len(e.connections) }

// Connections returns the child connection IDs in ascending order.
func (e *Env) Connections() []ID {
	ids := lo.Keys(e.connections)
	slices.Sort(ids)
	return ids
}
