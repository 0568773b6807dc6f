package protocol

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
	"github.com/gitproto/uploadpack/planner"
	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/request"
	"github.com/gitproto/uploadpack/store"
)

// shallowOutcome is the wire-ready form of a planner.FrontierDiff result.
type shallowOutcome struct {
	NewShallows []plumbing.Hash
	Unshallows  []plumbing.Hash
}

// computeShallowPlan runs the Shallow Planner for whichever deepen
// variant the request carries (§4.5) and diffs the result against the
// client's declared shallow_in. It returns nil when the request did not
// ask to deepen at all — nothing to report.
func computeShallowPlan(db store.ObjectDatabase, snap *RefSnapshot, req *request.Request) (*shallowOutcome, error) {
	if req.Deepen.Kind == request.DeepenNone {
		return nil, nil
	}

	wants := req.Wants
	for _, wr := range req.WantedRefs {
		wants = append(wants, wr.Oid)
	}

	var result planner.ShallowResult
	var err error

	switch req.Deepen.Kind {
	case request.DeepenDepth:
		result, err = planner.DeepenByDepth(db, wants, req.Deepen.Depth)
	case request.DeepenSince:
		result, err = planner.DeepenSince(db, wants, req.Deepen.Since)
	case request.DeepenNot:
		notCommits, rerr := resolveDeepenNot(db, snap, req.Deepen.Not)
		if rerr != nil {
			return nil, rerr
		}
		result, err = planner.DeepenNot(db, wants, notCommits)
	}
	if err != nil {
		return nil, err
	}

	newShallows, unshallows := planner.FrontierDiff(result, req.ShallowIn)
	return &shallowOutcome{NewShallows: newShallows, Unshallows: unshallows}, nil
}

// resolveDeepenNot resolves each deepen-not argument (a 40-hex object
// identifier or an advertised reference name) and peels annotated tags to the commit
// they target (§4.5: "annotated tags resolve to their target commit").
func resolveDeepenNot(db store.ObjectDatabase, snap *RefSnapshot, args []string) ([]plumbing.Hash, error) {
	out := make([]plumbing.Hash, 0, len(args))
	for _, arg := range args {
		oid, ok := parseHexHash(arg)
		if !ok {
			resolved, found := snap.Resolve(arg)
			if !found {
				return nil, errkind.RefNotFound.New(arg)
			}
			oid = resolved
		}
		commit, ok, err := policy.PeelToCommit(db, oid)
		if err != nil {
			return nil, errkind.Resource.New(err.Error())
		}
		if !ok {
			continue
		}
		out = append(out, commit)
	}
	return out, nil
}

func parseHexHash(s string) (plumbing.Hash, bool) {
	if len(s) != 40 || !isHex(s) {
		return plumbing.ZeroHash, false
	}
	return plumbing.NewHash(s), true
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
