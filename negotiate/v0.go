package negotiate

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/request"
	"github.com/gitproto/uploadpack/store"
)

// V0Negotiator drives the V0 negotiation state machine (§4.4): it
// consumes one `have` at a time and reports what the Session Driver
// should write back, according to the negotiated ACK mode.
type V0Negotiator struct {
	mode  request.MultiAckMode
	db    store.ObjectDatabase
	pw    *perWantOracle
	total int

	common       map[plumbing.Hash]bool
	coveredWants map[plumbing.Hash]bool
	ackedOnce    bool
	ready        bool
}

// NewV0Negotiator returns a negotiator for the given wants and ACK mode.
func NewV0Negotiator(mode request.MultiAckMode, db store.ObjectDatabase, wants []plumbing.Hash) *V0Negotiator {
	return &V0Negotiator{
		mode:         mode,
		db:           db,
		pw:           newPerWantOracle(db, wants),
		total:        len(wants),
		common:       make(map[plumbing.Hash]bool),
		coveredWants: make(map[plumbing.Hash]bool),
	}
}

// HandleHave processes one `have <oid>` line and returns the wire lines
// to send back immediately (possibly none), per §4.4's per-mode table.
func (n *V0Negotiator) HandleHave(oid plumbing.Hash) ([]string, error) {
	if !possess(n.db, oid) {
		return nil, nil
	}

	matched, err := n.pw.ancestorOfWants(oid)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	n.common[oid] = true
	for _, w := range matched {
		n.coveredWants[w] = true
	}
	if n.total > 0 && len(n.coveredWants) == n.total {
		n.ready = true
	}

	switch n.mode {
	case request.MultiAckNone:
		if n.ackedOnce {
			return nil, nil
		}
		n.ackedOnce = true
		return []string{"ACK " + oid.String()}, nil

	case request.MultiAck:
		return []string{"ACK " + oid.String() + " continue"}, nil

	case request.MultiAckDetailed:
		lines := []string{"ACK " + oid.String() + " common"}
		if n.ready {
			lines = append(lines, "ACK "+oid.String()+" ready")
		}
		return lines, nil
	}
	return nil, nil
}

// Ready reports whether every want now has at least one ancestor in
// common (§4.4's stop condition).
func (n *V0Negotiator) Ready() bool { return n.ready }

// Common returns the accumulated common-ancestor set.
func (n *V0Negotiator) Common() []plumbing.Hash {
	out := make([]plumbing.Hash, 0, len(n.common))
	for h := range n.common {
		out = append(out, h)
	}
	return out
}

// Done finalizes negotiation after a `done` line: NAK if no common base
// was found, else a final ACK of the last-acknowledged common object.
func (n *V0Negotiator) Done(last plumbing.Hash) string {
	if len(n.common) == 0 {
		return "NAK"
	}
	return "ACK " + last.String()
}
