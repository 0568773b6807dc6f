// Package metrics exposes expvar counters for the upload-pack daemon:
// sessions handled, packs written, bytes written, ACKs issued, and
// errors by kind.
package metrics

import (
	"expvar"
	"net/http"
	"sync"
	"time"
)

// Start runs the expvar HTTP exposition server at addr. expvar registers
// its handler on the default mux as a side effect of import, so any
// server sharing that mux also exposes /debug/vars.
func Start(addr string) error {
	return http.ListenAndServe(addr, nil)
}

var (
	sessionsMu       sync.Mutex
	sessionsHandled  = expvar.NewInt("sessions_handled")
	sessionAvgTime   = expvar.NewFloat("sessions_avgtime")

	sessionsRejected = expvar.NewInt("sessions_rejected")
	packsWritten     = expvar.NewInt("packs_written")
	packBytesWritten = expvar.NewInt("pack_bytes_written")
	acksIssued       = expvar.NewInt("acks_issued")

	errorsByKind = expvar.NewMap("errors_by_kind")
)

// SessionHandled increments the counter of completed sessions and updates
// the running average session duration.
func SessionHandled(elapsed time.Duration) {
	sessionsMu.Lock()
	defer sessionsMu.Unlock()
	sessionsHandled.Add(1)
	handled := float64(sessionsHandled.Value())
	// (t[n] + t[0..n-1] * (n - 1)) / n
	t := (float64(elapsed) + sessionAvgTime.Value()*(handled-1)) / handled
	sessionAvgTime.Set(t)
}

// SessionRejected increments the counter of sessions the daemon refused
// to accept, e.g. because the pool was already at capacity.
func SessionRejected() {
	sessionsRejected.Add(1)
}

// PackWritten increments the counter of packfiles written and adds n to
// the running total of pack bytes written.
func PackWritten(n int64) {
	packsWritten.Add(1)
	packBytesWritten.Add(n)
}

// AckIssued increments the counter of ACK lines issued during
// negotiation, across both dialects.
func AckIssued() {
	acksIssued.Add(1)
}

// ErrorRaised increments the per-kind error counter, keyed by the
// caller's short name for the errkind.Kind (e.g. "protocol",
// "want-not-valid").
func ErrorRaised(kind string) {
	errorsByKind.Add(kind, 1)
}
