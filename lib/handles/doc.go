// Package handles implements the node hierarchy behind the driver's opaque
// handles: Environment → Connection → Statement.
//
// Key Components:
//
//   - Handle: a tagged union over the three entities. Every variant is wrapped
//     in its own Locked value, so locking one node never blocks another. The
//     AsEnv, AsConnection and AsStatement downcasts return the guarded entity
//     only for the matching variant.
//
//   - Env, Connection, Statement: the payloads. Each carries its attribute
//     record (with the defaults the ODBC reference prescribes), its lifecycle
//     state, a set of child IDs and a DiagnosticsLog.
//
//   - Locked: a reader/writer lock around one entity. Reads (attribute getters,
//     diagnostic queries) take the shared lock, any mutation takes the
//     exclusive lock.
//
//   - DiagnosticsLog: the ordered per-node list of diagnostic records. It is
//     written only through Handle.AddDiagnostic and Handle.ClearDiagnostics.
//
// Lock Discipline:
//
//	No function of this package holds the locks of two nodes at the same time.
//	Callers that update a node together with its parent or child must lock
//	top-down (Environment, then Connection, then Statement) and release in
//	reverse order. This is a contract of the callers and is not checked here.
//
// State Transitions:
//
//	States are stored, not validated. Every entry point checks the current
//	state against the ODBC state tables before overwriting it. Statement
//	cancellation is the ordinary transition to StmtAsyncCancelled under the
//	exclusive lock.
//
// Poisoning:
//
//	When the callback passed to Locked.Write panics, the node is marked as
//	poisoned and later Read and Write calls return odbcerr.ErrPoisoned. The
//	diagnostics API keeps working so the failure can be reported; see
//	Handle.Healthy.
//
// Lifetime:
//
//	Nodes are created and destroyed by the registry (lib/registry). Parent and
//	child references are IDs that the registry resolves, so a stale reference
//	is detected instead of followed.
//
// Usage Example:
//
//	h := handles.NewStatementHandle(id, handles.NewStatement(connID, handles.StmtAllocated))
//
//	stmt, ok := h.AsStatement()
//	if !ok {
//	    return odbcerr.ErrWrongHandleType
//	}
//	err := stmt.Write(func(s *handles.Statement) {
//	    s.Attributes.RowArraySize = 10
//	})
//	if err != nil {
//	    h.AddDiagnostic(err)
//	}
package handles
