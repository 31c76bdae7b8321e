package statistics

import (
	"errors"
	"fmt"

	"github.com/j-veylop/chatstats-tui/internal/logger"
	"github.com/j-veylop/chatstats-tui/internal/models"
)

// WindowResult is the outcome of one per-window update.
type WindowResult struct {
	Err    error
	Window models.WindowType
}

// OK reports whether the update succeeded.
func (r WindowResult) OK() bool { return r.Err == nil }

// Results collects the per-window outcomes of a single event.
type Results []WindowResult

// Failed returns the windows whose update failed.
func (r Results) Failed() []models.WindowType {
	var out []models.WindowType
	for _, wr := range r {
		if !wr.OK() {
			out = append(out, wr.Window)
		}
	}
	return out
}

// Err joins every window failure, or returns nil when all succeeded.
func (r Results) Err() error {
	var errs []error
	for _, wr := range r {
		if !wr.OK() {
			errs = append(errs, fmt.Errorf("%s: %w", string(wr.Window), wr.Err))
		}
	}
	return errors.Join(errs...)
}

// Log writes one warning per failed window.
func (r Results) Log(msg string, args ...any) {
	for _, wr := range r {
		if wr.OK() {
			continue
		}
		logger.Warn(msg, append([]any{"window", string(wr.Window), "error", wr.Err}, args...)...)
	}
}
