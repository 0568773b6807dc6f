// Package policy implements the Reachability & Policy Engine (§4.3):
// it validates each wanted object against the configured request policy,
// optionally using precomputed reachability bitmaps, falling back to a
// bounded commit-graph traversal when no bitmap is available.
package policy

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
	"github.com/gitproto/uploadpack/store"
)

// RequestPolicy selects which wants are acceptable (§4.3).
type RequestPolicy int

const (
	// Advertised requires want to equal some advertised tip.
	Advertised RequestPolicy = iota
	// ReachableCommit requires want to be a commit reachable from an
	// advertised tip.
	ReachableCommit
	// Tip requires want to equal some tip among the full (unfiltered)
	// set of refs.
	Tip
	// ReachableCommitTip requires want to be a commit reachable from any
	// (unfiltered) tip.
	ReachableCommitTip
	// Any performs no reachability check.
	Any
)

// Oracle answers reachability queries against two tip sets: the
// advertised (ref-filtered) tips and the full, unfiltered tip set (§4.3,
// §9 "bitmaps vs walks" — the policy engine holds a reference to one of
// these rather than dispatching per call site).
type Oracle interface {
	ReachableFromAdvertised(oid plumbing.Hash) (bool, error)
	ReachableFromAny(oid plumbing.Hash) (bool, error)
}

// BitmapConfirmer is implemented by oracles that can decisively confirm
// reachability of a non-commit object via a bitmap lookup alone, without
// falling back to a walk. §4.3 only accepts a non-commit want through a
// bitmap lookup that "directly confirms" reachability; a walk-backed
// oracle never satisfies this.
type BitmapConfirmer interface {
	ConfirmedViaBitmap(oid plumbing.Hash, advertised bool) bool
}

// Engine is the Reachability & Policy Engine.
type Engine struct {
	Policy     RequestPolicy
	Oracle     Oracle
	DB         store.ObjectDatabase
	Advertised map[plumbing.Hash]bool
	AllTips    map[plumbing.Hash]bool
}

// CheckWant validates a single want per §4.3 and returns errkind.WantNotValid
// (or errkind.Resource on object-store I/O failure) when it is rejected.
func (e *Engine) CheckWant(oid plumbing.Hash) error {
	if e.Policy == Any {
		return nil
	}

	if e.Policy == Advertised {
		if e.Advertised[oid] {
			return nil
		}
		return notValid(oid)
	}

	if e.Policy == Tip {
		if e.AllTips[oid] {
			return nil
		}
		return notValid(oid)
	}

	// ReachableCommit / ReachableCommitTip.
	reach := e.Oracle.ReachableFromAdvertised
	advertised := true
	if e.Policy == ReachableCommitTip {
		reach = e.Oracle.ReachableFromAny
		advertised = false
	}

	kind, target, err := e.resolveForReachability(oid)
	if err != nil {
		return errkind.Resource.New(err.Error())
	}

	if kind != plumbing.CommitObject {
		// Non-commit wants: only ANY (already handled above), an
		// explicit advertisement, or a bitmap that directly confirms
		// reachability are acceptable (§4.3).
		if e.Advertised[oid] || (!advertised && e.AllTips[oid]) {
			return nil
		}
		if bc, ok := e.Oracle.(BitmapConfirmer); ok && bc.ConfirmedViaBitmap(oid, advertised) {
			return nil
		}
		return notValid(oid)
	}

	ok, err := reach(target)
	if err != nil {
		return errkind.Resource.New(err.Error())
	}
	if !ok {
		return notValid(oid)
	}
	return nil
}

// resolveForReachability returns the object kind of oid and, if oid is an
// annotated tag, the commit its chain peels to (§3's "peeling resolves a
// tag chain to its non-tag target"; SPEC_FULL.md's supplemented note that
// REACHABLE_COMMIT*/ANY peel before checking). If oid is not a peelable
// tag, target equals oid.
func (e *Engine) resolveForReachability(oid plumbing.Hash) (plumbing.ObjectType, plumbing.Hash, error) {
	kind, err := kindOf(e.DB, oid)
	if err != nil {
		return 0, oid, err
	}
	if kind != plumbing.TagObject {
		return kind, oid, nil
	}

	commitHash, ok, err := peelTagToCommit(e.DB, oid)
	if err != nil {
		return 0, oid, err
	}
	if !ok {
		return kind, oid, nil
	}
	return plumbing.CommitObject, commitHash, nil
}

func notValid(oid plumbing.Hash) error {
	return errkind.WantNotValid.New(oid.String())
}
