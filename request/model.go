// Package request models the parsed, validated upload-pack request: wants,
// want-refs, haves, shallow boundaries, deepen parameters, filter spec,
// capabilities, and server options.
//
// A Request is not changed after parsing, except that the V0 driver
// applies its first want line's capabilities with
// ApplyCapabilitiesToRequest. Deepen and Filter are modeled as sum
// types rather than a mutable set of optional fields, so a builder can
// reject conflicting options (two different deepen modes, for example)
// precisely, at the point they are parsed, instead of letting a later
// consumer guess which one should win.
package request

import (
	"time"

	"gopkg.in/src-d/go-git.v4/plumbing"
)

// DeepenKind selects which deepen variant, if any, a request carries.
type DeepenKind int

const (
	// DeepenNone means the client did not ask to shrink or grow the
	// shallow history.
	DeepenNone DeepenKind = iota
	// DeepenDepth is `deepen <n>`: walk n generations from each want.
	DeepenDepth
	// DeepenSince is `deepen-since <epoch>`: keep commits at or after a
	// timestamp.
	DeepenSince
	// DeepenNot is `deepen-not <ref-or-oid>`: exclude ancestors of one or
	// more references.
	DeepenNot
)

// Deepen is the sum type over §3's `deepen` field: none, depth N, since T,
// or not R (R may be repeated; SUPPLEMENTED FEATURES in SPEC_FULL.md).
type Deepen struct {
	Kind  DeepenKind
	Depth int
	Since time.Time
	Not   []string
}

// FilterKind selects which object-graph filter, if any, a request carries.
type FilterKind int

const (
	// FilterNone means no filter was requested.
	FilterNone FilterKind = iota
	// FilterBlobNone omits every blob not explicitly in wants.
	FilterBlobNone
	// FilterBlobLimit omits blobs whose uncompressed size exceeds Limit.
	FilterBlobLimit
	// FilterTreeDepth stops tree traversal below Depth.
	FilterTreeDepth
)

// Filter is the sum type over §3/§4.5's `filter` field.
type Filter struct {
	Kind  FilterKind
	Limit int64
	Depth int
	// Spec is the raw filter spec string as received, used in error
	// messages and in FilterNotAllowed.
	Spec string
}

// SideBandMode selects the negotiated side-band capability.
type SideBandMode int

const (
	// SideBandNone means no side-band framing was negotiated.
	SideBandNone SideBandMode = iota
	// SideBand64k is `side-band-64k`: packets up to 65519 bytes.
	SideBand64k
	// SideBandSmall is `side-band`: packets up to 1000 bytes.
	SideBandSmall
)

// MultiAckMode selects the negotiated ACK vocabulary for V0 negotiation.
type MultiAckMode int

const (
	// MultiAckNone is the plain ACK mode: one ACK, ever.
	MultiAckNone MultiAckMode = iota
	// MultiAck is `multi_ack`: ACK <oid> continue per common have.
	MultiAck
	// MultiAckDetailed is `multi_ack_detailed`: ACK <oid> common/ready.
	MultiAckDetailed
)

// Capabilities are the negotiated protocol flags (§3).
type Capabilities struct {
	ThinPack    bool
	NoProgress  bool
	IncludeTag  bool
	OfsDelta    bool
	SideBand    SideBandMode
	MultiAck    MultiAckMode
	Agent       string
}

// WantedRef records a V2 `want-ref` resolution: the symbolic name the
// client named and the object identifier it resolved to, so the
// `wanted-refs` section can echo it back in argument order (§5 ordering).
type WantedRef struct {
	Name string
	Oid  plumbing.Hash
}

// Request is the immutable, parsed client request (§3).
type Request struct {
	Wants        []plumbing.Hash
	WantedRefs   []WantedRef
	Haves        []plumbing.Hash
	ShallowIn    []plumbing.Hash
	Deepen       Deepen
	Filter       Filter
	Capabilities Capabilities
	ServerOptions []string
	// Done records whether the client sent a `done` line/argument, which
	// forces negotiation to end in this round regardless of whether a
	// common base has been found (§4.4).
	Done bool
}

// WantSet returns the request's wants as a lookup set, including any
// objects resolved from want-ref.
func (r *Request) WantSet() map[plumbing.Hash]bool {
	set := make(map[plumbing.Hash]bool, len(r.Wants)+len(r.WantedRefs))
	for _, w := range r.Wants {
		set[w] = true
	}
	for _, wr := range r.WantedRefs {
		set[wr.Oid] = true
	}
	return set
}

// HaveSet returns the request's haves as a lookup set.
func (r *Request) HaveSet() map[plumbing.Hash]bool {
	set := make(map[plumbing.Hash]bool, len(r.Haves))
	for _, h := range r.Haves {
		set[h] = true
	}
	return set
}
