package registry

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/dODBC/lib/odbc"
	"github.com/VictoriaMetrics/metrics"
)

// registryMetrics are the counters of one registry. They live in their own
// metrics.Set so several registries (e.g. in tests) do not share counters.
type registryMetrics struct {
	set       *metrics.Set
	allocated map[odbc.HandleType]*metrics.Counter
	freed     map[odbc.HandleType]*metrics.Counter
	invalid   *metrics.Counter
	limit     *metrics.Counter
}

// kindLabel returns the metric label value of a handle kind
func kindLabel(kind odbc.HandleType) string {
	switch kind {
	case odbc.HandleEnv:
		return "env"
	case odbc.HandleDbc:
		return "dbc"
	case odbc.HandleStmt:
		return "stmt"
	default:
		return "unknown"
	}
}

func newRegistryMetrics(r *Registry) *registryMetrics {
	set := metrics.NewSet()
	m := &registryMetrics{
		set:       set,
		allocated: make(map[odbc.HandleType]*metrics.Counter),
		freed:     make(map[odbc.HandleType]*metrics.Counter),
		invalid:   set.NewCounter("dodbc_invalid_handle_total"),
		limit:     set.NewCounter("dodbc_handle_limit_reached_total"),
	}
	for _, kind := range []odbc.HandleType{odbc.HandleEnv, odbc.HandleDbc, odbc.HandleStmt} {
		m.allocated[kind] = set.NewCounter(fmt.Sprintf(`dodbc_handles_allocated_total{kind=%q}`, kindLabel(kind)))
		m.freed[kind] = set.NewCounter(fmt.Sprintf(`dodbc_handles_freed_total{kind=%q}`, kindLabel(kind)))
	}
	set.NewGauge("dodbc_handles_live", func() float64 {
		return float64(r.Len())
	})
	return m
}

// WritePrometheus writes the registry metrics in Prometheus text format.
func (r *Registry) WritePrometheus(w io.Writer) {
	r.metrics.set.WritePrometheus(w)
}
