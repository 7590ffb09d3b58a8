// Package safego runs background work in goroutines that cannot take the
// process down. Audit emission and shipper fan-out both run detached from the
// request lifecycle, so a panic in one of them must be logged, not fatal.
package safego

import "log/slog"

// Go runs fn on a new goroutine and converts any panic into an error log.
// Use it for every fire-and-forget goroutine; a bare `go` that panics kills
// the whole server.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
