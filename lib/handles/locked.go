package handles

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dODBC/lib/odbcerr"
)

// Locked guards one entity (Env, Connection or Statement) with a
// reader/writer lock.
//
// A panic raised by the callback of Write poisons the value: the lock is
// released, the panic is returned as an *odbcerr.Error and every later Read
// or Write fails with odbcerr.ErrPoisoned. The driver never crashes the
// calling process; the entry point layer reports the failure as a fatal
// diagnostic on the handle instead.
type Locked[T any] struct {
	mu       sync.RWMutex
	value    T
	poisoned atomic.Bool
}

func newLocked[T any](v T) *Locked[T] {
	return &Locked[T]{value: v}
}

// Read calls fn with the value while holding the shared lock.
// fn must not modify the value or keep the pointer after it returns.
func (l *Locked[T]) Read(fn func(v *T)) (err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.poisoned.Load() {
		return odbcerr.ErrPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			// readers cannot leave the value half-updated, so no poisoning here
			err = odbcerr.General("panic while reading handle: %v", r)
		}
	}()
	fn(&l.value)
	return nil
}

// Write calls fn with the value while holding the exclusive lock.
// The changes made by fn become visible to readers that acquire the lock
// after Write returns.
func (l *Locked[T]) Write(fn func(v *T)) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.poisoned.Load() {
		return odbcerr.ErrPoisoned
	}
	defer func() {
		if r := recover(); r != nil {
			l.poisoned.Store(true)
			err = odbcerr.NewError(odbcerr.RetCPoisoned, odbcerr.StateGeneralError,
				fmt.Sprintf("panic while updating handle: %v", r))
		}
	}()
	fn(&l.value)
	return nil
}

// Poisoned reports whether a writer panicked while holding the lock.
func (l *Locked[T]) Poisoned() bool {
	return l.poisoned.Load()
}

// readAlways and writeAlways ignore the poison flag. They back the
// diagnostics API, which must keep working on a poisoned node.

func (l *Locked[T]) readAlways(fn func(v *T)) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn(&l.value)
}

func (l *Locked[T]) writeAlways(fn func(v *T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.value)
}
