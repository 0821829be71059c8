// Package registry implements the checked handle table of the driver.
//
// Applications only ever see opaque tokens (odbc.Handle and its typed
// flavors). The registry maps each token to an arena ID and the arena ID to
// the handles.Handle node. Every entry point resolves its token here before
// touching a node, so a stale, foreign or null token yields
// odbcerr.ErrInvalidHandle (SQL_INVALID_HANDLE) instead of a dangling
// reference.
//
// Key Components:
//
//   - Token table: an xsync.MapOf from token to ID. Lookups are lock-free.
//     Tokens are drawn from a per-registry counter with a random base and are
//     never reused.
//
//   - Arena: a slice of slots, each carrying a generation that is bumped on
//     every reuse. An ID only resolves while the generation it carries still
//     matches its slot. Released slots are reused lowest index first.
//
//   - Allocation contract: AllocEnv, AllocConnection and AllocStatement create
//     nodes in their initial state and link them into the parent's child set
//     under the parent's exclusive lock. Free refuses nodes that still have
//     children (HY010), unlinks the node from its parent and retires its token.
//
//   - Process-wide registry: Init, Default and Teardown manage the registry
//     shared by all entry points of a loaded driver.
//
//   - Metrics: allocation, free and invalid-token counters plus a live-handle
//     gauge, exported with WritePrometheus.
//
// Lock Ordering:
//
//	structural lock (Alloc*, Free) → one node lock (the parent) → arena lock.
//	The arena lock is never held while a node lock is acquired, so Resolve and
//	Lookup are safe to call while holding node locks. Alloc* and Free must not
//	be called while the caller holds a node lock.
//
// Usage Example:
//
//	reg := registry.Init(common.DefaultDriverConfig())
//
//	henv, _ := reg.AllocEnv()
//	hdbc, err := reg.AllocConnection(henv)
//	if err != nil {
//	    return odbcerr.SQLReturn(err)
//	}
//
//	h, err := reg.ResolveConnection(hdbc)
//	if err != nil {
//	    return odbcerr.SQLReturn(err) // SQL_INVALID_HANDLE
//	}
//	h.ClearDiagnostics()
package registry
