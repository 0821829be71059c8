package registry

import (
	"sync"

	"github.com/ValentinKolb/dODBC/lib/common"
	"github.com/ValentinKolb/dODBC/lib/odbcerr"
)

// --------------------------------------------------------------------------
// Process-wide registry
// --------------------------------------------------------------------------

// The driver manager loads the driver once per process and hands every
// entry point a token from the same table, so the entry points share one
// registry. It is created by the first handle allocation (Init) and dropped
// when the driver is unloaded (Teardown). defaultMu is independent from all
// node locks.
var (
	defaultMu       sync.Mutex
	defaultRegistry *Registry
)

// Init returns the process-wide registry, creating it with config on the
// first call. Later calls return the existing registry and ignore config.
func Init(config common.DriverConfig) *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		defaultRegistry = New(config)
		log.Infof("driver registry initialized (max handles: %d)", config.MaxHandles)
	}
	return defaultRegistry
}

// Default returns the process-wide registry or odbcerr.ErrNotInitialized.
func Default() (*Registry, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		return nil, odbcerr.ErrNotInitialized
	}
	return defaultRegistry, nil
}

// Teardown drops the process-wide registry and returns the number of
// handles that were still allocated. Tokens issued by the dropped registry
// no longer resolve through Default.
func Teardown() int {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultRegistry == nil {
		return 0
	}
	leaked := defaultRegistry.Len()
	if leaked > 0 {
		log.Warningf("driver unloaded with %d handles still allocated", leaked)
	}
	defaultRegistry = nil
	return leaked
}
