// Package store names the external collaborators the upload-pack core
// consumes (§6) and provides reference implementations of them for tests
// and the demo server in cmd/.
//
// The core treats the object database and reference store as out-of-scope
// collaborators (§1): it never encodes or decodes packfiles at the byte
// level and never owns ref storage. Their contracts are expressed directly
// against go-git.v4's own storage interfaces, so any go-git storage
// backend (memory, filesystem, or a custom one) satisfies them without an
// adapter layer.
package store

import (
	"io"

	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/storer"
)

// ObjectDatabase is the §6 "Object Database" contract: has/open/parse by
// object identifier. It is exactly go-git.v4's EncodedObjectStorer;
// object-kind decoding (ParseCommit/ParseTree-equivalent) is layered on
// top of it in the policy and planner packages via
// gopkg.in/src-d/go-git.v4/plumbing/object, rather than duplicated here.
type ObjectDatabase = storer.EncodedObjectStorer

// ReferenceStore is the §6 "Reference Store" contract: a snapshot of
// (name, target, peeled) triples with symbolic-link resolution. It is
// exactly go-git.v4's ReferenceStorer.
type ReferenceStore = storer.ReferenceStorer

// Bitmap is the object set reachable from a single indexed commit.
type Bitmap interface {
	Contains(oid plumbing.Hash) bool
	// Each calls f for every object identifier in the bitmap, stopping
	// early once f returns false.
	Each(f func(plumbing.Hash) bool)
}

// BitmapIndex is the §6 "Reachability Bitmaps" contract: an optional
// mapping from a commit to the set of objects reachable from it.
type BitmapIndex interface {
	BitmapOf(commit plumbing.Hash) (Bitmap, bool)
}

// PackOptions configures a Pack Writer invocation (§4.6).
type PackOptions struct {
	AllowThinPack bool
	AllowOfsDelta bool
	// Progress, if non-nil, receives human-readable progress text; the
	// driver writes it on side-band 2 when side-band is negotiated and
	// no-progress was not set.
	Progress io.Writer
	// Omit names objects a negotiated filter (§4.5) has already excluded
	// from the send set. A PackWriter must leave every object in Omit out
	// of the packfile even though it is reachable from sendSet, since an
	// object's absence from the pack is the filter's only observable
	// effect.
	Omit map[plumbing.Hash]bool
}

// PackWriter is the §6 "Pack Writer" contract: write(send_set, bases,
// options, sink).
type PackWriter interface {
	Write(sendSet, bases []plumbing.Hash, opts PackOptions, sink io.Writer) error
}

// RefFilter is the §6 "Ref Filter hook": filter(refs) -> refs, invoked
// once per session.
type RefFilter func(refs []*plumbing.Reference) []*plumbing.Reference
