package protocol

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/store"
)

// RefSnapshot is the read-only ref state taken once at session start (§5:
// "read-only object store and reference snapshots taken at session
// start"). advertised is the result of applying the Ref Filter hook;
// allTips is every ref's target, unfiltered, used by the TIP and
// REACHABLE_COMMIT_TIP policies.
type RefSnapshot struct {
	Advertised []*plumbing.Reference
	AllTips    []*plumbing.Reference

	advertisedSet map[plumbing.Hash]bool
	allTipsSet    map[plumbing.Hash]bool
	byName        map[string]plumbing.Hash
}

// NewRefSnapshot lists every reference in refs, applies filter (if
// non-nil) to produce the advertised subset, indexes both sets by target
// hash, and indexes the advertised subset by name.
func NewRefSnapshot(refs store.ReferenceStore, filter store.RefFilter) (*RefSnapshot, error) {
	iter, err := refs.IterReferences()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var all []*plumbing.Reference
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference {
			all = append(all, ref)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	advertised := all
	if filter != nil {
		advertised = filter(all)
	}

	snap := &RefSnapshot{
		Advertised:    advertised,
		AllTips:       all,
		advertisedSet: make(map[plumbing.Hash]bool, len(advertised)),
		allTipsSet:    make(map[plumbing.Hash]bool, len(all)),
		byName:        make(map[string]plumbing.Hash, len(all)),
	}
	for _, r := range advertised {
		snap.advertisedSet[r.Hash()] = true
		snap.byName[r.Name().String()] = r.Hash()
	}
	for _, r := range all {
		snap.allTipsSet[r.Hash()] = true
	}
	return snap, nil
}

// AdvertisedSet returns the advertised tip set as a lookup map.
func (s *RefSnapshot) AdvertisedSet() map[plumbing.Hash]bool { return s.advertisedSet }

// AllTipsSet returns the full, unfiltered tip set as a lookup map.
func (s *RefSnapshot) AllTipsSet() map[plumbing.Hash]bool { return s.allTipsSet }

// AdvertisedHashes returns the advertised tip set as a slice, for
// building reachability oracles.
func (s *RefSnapshot) AdvertisedHashes() []plumbing.Hash {
	out := make([]plumbing.Hash, 0, len(s.advertisedSet))
	for h := range s.advertisedSet {
		out = append(out, h)
	}
	return out
}

// AllTipHashes returns the full tip set as a slice.
func (s *RefSnapshot) AllTipHashes() []plumbing.Hash {
	out := make([]plumbing.Hash, 0, len(s.allTipsSet))
	for h := range s.allTipsSet {
		out = append(out, h)
	}
	return out
}

// Resolve honors request.RefResolver against the advertised
// (ref-filtered) names only: a name the Ref Filter hook hid does not
// resolve. Reachability of the resolved object is checked separately by
// the policy engine.
func (s *RefSnapshot) Resolve(name string) (plumbing.Hash, bool) {
	h, ok := s.byName[name]
	return h, ok
}
