package policy

import (
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/object"

	"github.com/gitproto/uploadpack/store"
)

// WalkOracle answers reachability queries with a bounded commit-graph
// traversal from the tip set, memoizing every commit it visits so a
// second query never re-walks ground already covered (§3's
// "reachable_cache", §4.3's "bounded commit-graph traversal ... must
// terminate when all wants are resolved or all tips are exhausted").
type WalkOracle struct {
	db         store.ObjectDatabase
	advertised *walker
	all        *walker
}

// NewWalkOracle returns a walk-backed Oracle over the given tip sets.
func NewWalkOracle(db store.ObjectDatabase, advertisedTips, allTips []plumbing.Hash) *WalkOracle {
	return &WalkOracle{
		db:         db,
		advertised: newWalker(db, advertisedTips),
		all:        newWalker(db, allTips),
	}
}

// ReachableFromAdvertised honors Oracle.
func (o *WalkOracle) ReachableFromAdvertised(oid plumbing.Hash) (bool, error) {
	return o.advertised.reachable(oid)
}

// ReachableFromAny honors Oracle.
func (o *WalkOracle) ReachableFromAny(oid plumbing.Hash) (bool, error) {
	return o.all.reachable(oid)
}

// AncestrySet returns the full set of commits reachable from tips,
// tips included. It is used where a caller needs the whole closure
// rather than a single membership query, e.g. the Shallow Planner's
// `deepen-not` exclusion set (§4.5).
func AncestrySet(db store.ObjectDatabase, tips []plumbing.Hash) (map[plumbing.Hash]bool, error) {
	w := newWalker(db, tips)
	for !w.done {
		if _, err := w.reachable(plumbing.ZeroHash); err != nil {
			return nil, err
		}
	}
	return w.visited, nil
}

// walker incrementally expands a BFS frontier from a fixed tip set,
// caching every visited commit. Once the frontier is exhausted (done),
// any oid not in visited is conclusively unreachable from these tips.
type walker struct {
	db      store.ObjectDatabase
	visited map[plumbing.Hash]bool
	queue   []plumbing.Hash
	done    bool
}

func newWalker(db store.ObjectDatabase, tips []plumbing.Hash) *walker {
	w := &walker{db: db, visited: make(map[plumbing.Hash]bool, len(tips))}
	for _, t := range tips {
		if !w.visited[t] {
			w.visited[t] = true
			w.queue = append(w.queue, t)
		}
	}
	return w
}

func (w *walker) reachable(target plumbing.Hash) (bool, error) {
	if w.visited[target] {
		return true, nil
	}
	if w.done {
		return false, nil
	}

	for len(w.queue) > 0 {
		cur := w.queue[0]
		w.queue = w.queue[1:]

		commit, err := object.GetCommit(w.db, cur)
		if err != nil {
			// A tip or ancestor that is not a commit (an annotated
			// tag pointing elsewhere, or a corrupt link) is a dead
			// end for this traversal, not a fatal error.
			continue
		}

		for _, p := range commit.ParentHashes {
			if w.visited[p] {
				continue
			}
			w.visited[p] = true
			w.queue = append(w.queue, p)
		}

		if w.visited[target] {
			return true, nil
		}
	}

	w.done = true
	return w.visited[target], nil
}
