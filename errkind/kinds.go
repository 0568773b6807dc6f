// Package errkind defines the error kinds the upload-pack core can raise.
//
// Every fatal condition described by the core is one of these kinds. The
// Session Driver maps a kind to a wire message (an `ERR <text>` line before
// the packfile section begins, a side-band 3 message during it) and never
// retries locally.
package errkind

import "gopkg.in/src-d/go-errors.v0"

var (
	// Protocol is malformed framing, an unexpected token, or a duplicate
	// section.
	Protocol = errors.NewKind("protocol error: %s")

	// WantNotValid is a want rejected by the configured request policy.
	WantNotValid = errors.NewKind("want %s not valid")

	// RefNotFound is a want-ref or deepen-not argument naming an unknown
	// reference.
	RefNotFound = errors.NewKind("ref not found: %s")

	// FilterNotAllowed is a filter spec supplied by the client when the
	// server configuration disallows filtering.
	FilterNotAllowed = errors.NewKind("filter not allowed: %s")

	// ShallowRequestEmpty is a deepen-since or deepen-not request that
	// selects no commits.
	ShallowRequestEmpty = errors.NewKind("No commits selected for shallow request")

	// Resource is an object-store or reference-store I/O failure.
	Resource = errors.NewKind("resource error: %s")

	// ClientDisconnect is a transport closed unexpectedly.
	ClientDisconnect = errors.NewKind("client disconnected: %s")
)
