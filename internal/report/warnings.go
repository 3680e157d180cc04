package report

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Warning describes one degraded cell: a scope/window pair whose data could
// not be computed and was replaced by a zero-valued default. The report
// still renders; the presentation layer shows the warning inline.
type Warning struct {
	Scope  string `json:"scope"`
	Window string `json:"window"`
	Reason string `json:"reason"`
}

// Warnings collects degradations from concurrent report sections. There are
// deliberately no retries: a failed read query will not self-heal within
// the same request, so the cell is treated as "no data" instead.
type Warnings struct {
	mu   sync.Mutex
	list []Warning
}

// Add records one degraded cell and logs it.
func (w *Warnings) Add(scope, window string, err error) {
	if err == nil {
		return
	}
	w.mu.Lock()
	w.list = append(w.list, Warning{Scope: scope, Window: window, Reason: err.Error()})
	w.mu.Unlock()
	log.Warn().Str("scope", scope).Str("window", window).Err(err).
		Msg("Report cell degraded to zero")
}

// All returns the collected warnings.
func (w *Warnings) All() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Warning(nil), w.list...)
}

// Fallback is the single degradation policy: on error the value is replaced
// by the type's zero value and a warning is recorded, applied uniformly at
// every aggregation call site.
func Fallback[T any](v T, err error, w *Warnings, scope, window string) T {
	if err == nil {
		return v
	}
	w.Add(scope, window, err)
	var zero T
	return zero
}
