package negotiate

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/store"
)

// V2Result is the outcome of a single V2 negotiation round (§4.4: V2 is a
// single round, not an alternating exchange).
type V2Result struct {
	// Common is the set of haves confirmed as ancestors of some want.
	Common []plumbing.Hash
	// HasCommon is len(Common) > 0, kept explicit so NAK-vs-ACK section
	// framing doesn't need a length check at every call site.
	HasCommon bool
	// CoverageReady is true when every want now has an ancestor in
	// common (§4.4's stop condition) — this is the literal `ready`
	// marker the acknowledgments section prints.
	CoverageReady bool
	// ProceedToPack is true when the round should continue on to
	// shallow-info/packfile: either coverage is complete, or the client
	// forced the round to end with `done`.
	ProceedToPack bool
}

// NegotiateV2 runs one V2 negotiation round over the full haves batch the
// client sent (§4.4: "Single round: on receipt of the fetch argument
// block, the engine inspects all haves").
func NegotiateV2(db store.ObjectDatabase, wants, haves []plumbing.Hash, done bool) (V2Result, error) {
	pw := newPerWantOracle(db, wants)

	common := make(map[plumbing.Hash]bool)
	covered := make(map[plumbing.Hash]bool)

	for _, h := range haves {
		if !possess(db, h) {
			continue
		}
		matched, err := pw.ancestorOfWants(h)
		if err != nil {
			return V2Result{}, err
		}
		if len(matched) == 0 {
			continue
		}
		common[h] = true
		for _, w := range matched {
			covered[w] = true
		}
	}

	coverageReady := len(wants) > 0 && len(covered) == len(wants)

	out := make([]plumbing.Hash, 0, len(common))
	for h := range common {
		out = append(out, h)
	}

	return V2Result{
		Common:        out,
		HasCommon:     len(out) > 0,
		CoverageReady: coverageReady,
		ProceedToPack: coverageReady || done,
	}, nil
}
