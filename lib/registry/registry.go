package registry

import (
	"sync"

	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/handles"
	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("registry")

// slot is one arena entry. node is nil while the slot is free.
type slot struct {
	generation uint32
	node       *handles.Handle
	token      odbc.Handle
}

// Registry is the checked handle table of the driver. It maps the opaque
// tokens handed to applications to arena IDs and owns every node it
// allocated.
//
// Locking:
//
//	structMu serializes Alloc* and Free. While holding it, these methods lock
//	at most one node (the parent) and briefly take mu. mu guards the arena and
//	is never held while a node lock is acquired, so Resolve and Lookup can be
//	called while the caller holds any node lock.
type Registry struct {
	config common.DriverConfig

	structMu sync.Mutex

	mu    sync.RWMutex
	slots []slot
	free  *freeList
	live  int

	tokens  *xsync.MapOf[odbc.Handle, handles.ID]
	source  *tokenSource
	metrics *registryMetrics
}

// New creates an empty registry.
func New(config common.DriverConfig) *Registry {
	r := &Registry{
		config: config,
		free:   newFreeList(),
		tokens: xsync.NewMapOf[odbc.Handle, handles.ID](),
		source: newTokenSource(),
	}
	r.metrics = newRegistryMetrics(r)
	return r
}

// --------------------------------------------------------------------------
// Resolution
// --------------------------------------------------------------------------

// Resolve returns the node behind token. Unknown, null and freed tokens
// yield odbcerr.ErrInvalidHandle.
func (r *Registry) Resolve(token odbc.Handle) (*handles.Handle, error) {
	if token == odbc.NullHandle {
		r.metrics.invalid.Inc()
		return nil, odbcerr.ErrInvalidHandle
	}
	id, ok := r.tokens.Load(token)
	if !ok {
		r.metrics.invalid.Inc()
		return nil, odbcerr.ErrInvalidHandle
	}
	h, ok := r.Lookup(id)
	if !ok {
		r.metrics.invalid.Inc()
		return nil, odbcerr.ErrInvalidHandle
	}
	return h, nil
}

// ResolveEnv resolves an environment token.
func (r *Registry) ResolveEnv(henv odbc.HEnv) (*handles.Handle, error) {
	return r.resolveKind(odbc.Handle(henv), odbc.HandleEnv)
}

// ResolveConnection resolves a connection token.
func (r *Registry) ResolveConnection(hdbc odbc.HDbc) (*handles.Handle, error) {
	return r.resolveKind(odbc.Handle(hdbc), odbc.HandleDbc)
}

// ResolveStatement resolves a statement token.
func (r *Registry) ResolveStatement(hstmt odbc.HStmt) (*handles.Handle, error) {
	return r.resolveKind(odbc.Handle(hstmt), odbc.HandleStmt)
}

func (r *Registry) resolveKind(token odbc.Handle, kind odbc.HandleType) (*handles.Handle, error) {
	h, err := r.Resolve(token)
	if err != nil {
		return nil, err
	}
	if h.Kind() != kind {
		return nil, odbcerr.ErrWrongHandleType
	}
	return h, nil
}

// Lookup returns the live node with the given ID. IDs of freed nodes do not
// resolve, even when their slot has been reused.
func (r *Registry) Lookup(id handles.ID) (*handles.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := int(id.Index())
	if id.IsZero() || idx >= len(r.slots) {
		return nil, false
	}
	s := r.slots[idx]
	if s.node == nil || s.generation != id.Generation() {
		return nil, false
	}
	return s.node, true
}

// TokenOf returns the token of the live node with the given ID.
func (r *Registry) TokenOf(id handles.ID) (odbc.Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := int(id.Index())
	if id.IsZero() || idx >= len(r.slots) {
		return odbc.NullHandle, false
	}
	s := r.slots[idx]
	if s.node == nil || s.generation != id.Generation() {
		return odbc.NullHandle, false
	}
	return s.token, true
}

// Environments returns the tokens of all live environments in arena order.
func (r *Registry) Environments() []odbc.HEnv {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []odbc.HEnv
	for _, s := range r.slots {
		if s.node != nil && s.node.Kind() == odbc.HandleEnv {
			out = append(out, odbc.HEnv(s.token))
		}
	}
	return out
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.live
}

// --------------------------------------------------------------------------
// Allocation
// --------------------------------------------------------------------------

// AllocEnv allocates an environment in the Allocated state.
func (r *Registry) AllocEnv() (odbc.HEnv, error) {
	r.structMu.Lock()
	defer r.structMu.Unlock()

	token, h, err := r.insert(func(id handles.ID) *handles.Handle {
		return handles.NewEnvHandle(id, handles.NewEnv(handles.EnvAllocated))
	})
	if err != nil {
		return 0, err
	}
	r.metrics.allocated[odbc.HandleEnv].Inc()
	log.Debugf("allocated environment %s", h.ID())
	return odbc.HEnv(token), nil
}

// AllocConnection allocates a connection from henv. The connection is
// linked into the environment's child set and the environment moves to
// ConnectionAllocated. Failures other than an invalid token are also
// recorded as diagnostics on the environment.
func (r *Registry) AllocConnection(henv odbc.HEnv) (odbc.HDbc, error) {
	r.structMu.Lock()
	defer r.structMu.Unlock()

	envH, err := r.ResolveEnv(henv)
	if err != nil {
		return 0, err
	}
	if err := envH.Healthy(); err != nil {
		return 0, err
	}
	env, _ := envH.AsEnv()

	var token odbc.Handle
	var h *handles.Handle
	var insertErr error
	err = env.Write(func(e *handles.Env) {
		token, h, insertErr = r.insert(func(id handles.ID) *handles.Handle {
			return handles.NewConnectionHandle(id, handles.NewConnection(envH.ID(), handles.ConnAllocated))
		})
		if insertErr != nil {
			return
		}
		e.AddConnection(h.ID())
		e.State = handles.EnvConnectionAllocated
	})
	if err == nil {
		err = insertErr
	}
	if err != nil {
		if h != nil && insertErr == nil {
			// the environment was poisoned while linking
			r.remove(token, h.ID())
		}
		envH.AddDiagnostic(err)
		return 0, err
	}

	r.metrics.allocated[odbc.HandleDbc].Inc()
	log.Debugf("allocated connection %s on environment %s", h.ID(), envH.ID())
	return odbc.HDbc(token), nil
}

// AllocStatement allocates a statement from hdbc. The connection must be
// connected (Connected or StatementAllocated); it is left in
// StatementAllocated. Failures other than an invalid token are also recorded
// as diagnostics on the connection.
func (r *Registry) AllocStatement(hdbc odbc.HDbc) (odbc.HStmt, error) {
	r.structMu.Lock()
	defer r.structMu.Unlock()

	connH, err := r.ResolveConnection(hdbc)
	if err != nil {
		return 0, err
	}
	if err := connH.Healthy(); err != nil {
		return 0, err
	}
	conn, _ := connH.AsConnection()

	var token odbc.Handle
	var h *handles.Handle
	var insertErr error
	err = conn.Write(func(c *handles.Connection) {
		if c.State != handles.ConnConnected && c.State != handles.ConnStatementAllocated {
			insertErr = odbcerr.ErrConnectionNotOpen
			return
		}
		token, h, insertErr = r.insert(func(id handles.ID) *handles.Handle {
			return handles.NewStatementHandle(id, handles.NewStatement(connH.ID(), handles.StmtAllocated))
		})
		if insertErr != nil {
			return
		}
		c.AddStatement(h.ID())
		c.State = handles.ConnStatementAllocated
	})
	if err == nil {
		err = insertErr
	}
	if err != nil {
		if h != nil && insertErr == nil {
			r.remove(token, h.ID())
		}
		connH.AddDiagnostic(err)
		return 0, err
	}

	r.metrics.allocated[odbc.HandleStmt].Inc()
	log.Debugf("allocated statement %s on connection %s", h.ID(), connH.ID())
	return odbc.HStmt(token), nil
}

// Free releases the node behind token. A node that still has children is
// not freed (odbcerr.ErrHasChildren, recorded on the node). Otherwise the
// node is unlinked from its parent and its token and ID stop resolving.
// Poisoned nodes can be freed.
func (r *Registry) Free(token odbc.Handle) error {
	r.structMu.Lock()
	defer r.structMu.Unlock()

	h, err := r.Resolve(token)
	if err != nil {
		return err
	}

	if children := h.Children(); len(children) > 0 {
		h.AddDiagnostic(odbcerr.ErrHasChildren)
		log.Debugf("refused to free %s %s with %d children", h.Kind(), h.ID(), len(children))
		return odbcerr.ErrHasChildren
	}

	if parentID := h.Parent(); !parentID.IsZero() {
		if parent, ok := r.Lookup(parentID); ok {
			parent.RemoveChild(h.ID())
		} else {
			log.Warningf("parent %s of %s %s is gone", parentID, h.Kind(), h.ID())
		}
	}

	r.remove(token, h.ID())
	r.metrics.freed[h.Kind()].Inc()
	log.Debugf("freed %s %s", h.Kind(), h.ID())
	return nil
}

// --------------------------------------------------------------------------
// Arena
// --------------------------------------------------------------------------

// insert places a new node into a free slot and publishes its token.
func (r *Registry) insert(build func(id handles.ID) *handles.Handle) (odbc.Handle, *handles.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.MaxHandles > 0 && r.live >= r.config.MaxHandles {
		r.metrics.limit.Inc()
		log.Warningf("handle limit of %d reached", r.config.MaxHandles)
		return odbc.NullHandle, nil, odbcerr.ErrHandleLimit
	}

	idx, ok := r.free.pop()
	if !ok {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[idx]
	s.generation++
	if s.generation == 0 {
		// the zero generation is reserved for the null ID
		s.generation = 1
	}

	id := handles.NewID(idx, s.generation)
	s.node = build(id)
	s.token = r.source.nextToken()
	r.live++
	r.tokens.Store(s.token, id)
	return s.token, s.node, nil
}

// remove unpublishes token and releases the slot of id.
func (r *Registry) remove(token odbc.Handle, id handles.ID) {
	r.tokens.Delete(token)

	r.mu.Lock()
	defer r.mu.Unlock()
	s := &r.slots[id.Index()]
	s.node = nil
	s.token = odbc.NullHandle
	r.free.push(id.Index())
	r.live--
}
