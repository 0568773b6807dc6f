// Package negotiate implements the Negotiation Engine (§4.4): it consumes
// `have` lines, computes the common cut, decides when to stop negotiating,
// and emits ACK/NAK/ready per dialect.
package negotiate

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/store"
)

// perWantOracle answers, for a have, which of the request's wants it is an
// ancestor of. The stop condition (§4.4) needs per-want coverage, not just
// "an ancestor of some want", so this keeps one walker rooted at each want
// rather than a single walker rooted at all of them.
type perWantOracle struct {
	oracles map[plumbing.Hash]*policy.WalkOracle
}

func newPerWantOracle(db store.ObjectDatabase, wants []plumbing.Hash) *perWantOracle {
	m := make(map[plumbing.Hash]*policy.WalkOracle, len(wants))
	for _, w := range wants {
		m[w] = policy.NewWalkOracle(db, []plumbing.Hash{w}, nil)
	}
	return &perWantOracle{oracles: m}
}

// ancestorOfWants returns the subset of wants that oid is an ancestor of
// (or equal to).
func (p *perWantOracle) ancestorOfWants(oid plumbing.Hash) ([]plumbing.Hash, error) {
	var matched []plumbing.Hash
	for w, o := range p.oracles {
		ok, err := o.ReachableFromAdvertised(oid)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, w)
		}
	}
	return matched, nil
}

func possess(db store.ObjectDatabase, oid plumbing.Hash) bool {
	_, err := db.EncodedObject(plumbing.AnyObject, oid)
	return err == nil
}
