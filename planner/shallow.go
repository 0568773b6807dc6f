// Package planner implements the Shallow & Filter Planner and the Pack
// Writer Driver (§4.5-§4.6): shallow frontier arithmetic for deepen/
// deepen-since/deepen-not, object-graph filtering, and invocation of the
// external Pack Writer.
package planner

import (
	"time"

	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/object"

	"github.com/gitproto/uploadpack/errkind"
	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/store"
)

// ShallowResult is the outcome of one shallow-boundary computation: the
// commits selected as new shallow boundaries, and the full set of
// commits the walk actually visited (used by FrontierDiff to decide
// which previously-shallow boundaries are now fully present).
type ShallowResult struct {
	Shallow map[plumbing.Hash]bool
	Visited map[plumbing.Hash]bool
}

// DeepenByDepth implements `deepen <n>` (§4.5): walk commit parents from
// wants, generations counted with the want itself at generation 1. A
// commit at generation n with a parent becomes a new shallow boundary;
// its parent is excluded from the walk.
func DeepenByDepth(db store.ObjectDatabase, wants []plumbing.Hash, n int) (ShallowResult, error) {
	gen := make(map[plumbing.Hash]int, len(wants))
	var queue []plumbing.Hash
	for _, w := range wants {
		if _, seen := gen[w]; !seen {
			gen[w] = 1
			queue = append(queue, w)
		}
	}

	shallow := make(map[plumbing.Hash]bool)
	visited := make(map[plumbing.Hash]bool, len(gen))

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited[cur] = true

		commit, err := object.GetCommit(db, cur)
		if err != nil {
			continue
		}

		if gen[cur] == n {
			if len(commit.ParentHashes) > 0 {
				shallow[cur] = true
			}
			continue
		}

		for _, p := range commit.ParentHashes {
			if _, seen := gen[p]; !seen {
				gen[p] = gen[cur] + 1
				queue = append(queue, p)
			}
		}
	}

	return ShallowResult{Shallow: shallow, Visited: visited}, nil
}

// DeepenSince implements `deepen-since T` (§4.5): a commit is selected
// iff its committer timestamp is >= since. If a selected commit has a
// parent older than since, the commit becomes a shallow boundary and the
// old parent is excluded. It is an error if no commit is selected.
func DeepenSince(db store.ObjectDatabase, wants []plumbing.Hash, since time.Time) (ShallowResult, error) {
	visited := make(map[plumbing.Hash]bool, len(wants))
	var queue []plumbing.Hash
	for _, w := range wants {
		if !visited[w] {
			visited[w] = true
			queue = append(queue, w)
		}
	}

	shallow := make(map[plumbing.Hash]bool)
	anySelected := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		commit, err := object.GetCommit(db, cur)
		if err != nil {
			continue
		}
		if !commit.Committer.When.Before(since) {
			anySelected = true
		}

		cut := false
		for _, p := range commit.ParentHashes {
			parent, err := object.GetCommit(db, p)
			if err != nil {
				continue
			}
			if parent.Committer.When.Before(since) {
				cut = true
				continue
			}
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
		if cut {
			shallow[cur] = true
		}
	}

	if !anySelected {
		return ShallowResult{}, errkind.ShallowRequestEmpty.New()
	}
	return ShallowResult{Shallow: shallow, Visited: visited}, nil
}

// DeepenNot implements `deepen-not R` (§4.5): exclude all ancestors of
// each resolved R (annotated tags peeled to their target commit first).
// Multiple R arguments union their exclusion sets (SUPPLEMENTED
// FEATURES). Commits whose parents fall in the exclusion set become
// shallow boundaries. It is an error if no commit remains selected.
func DeepenNot(db store.ObjectDatabase, wants []plumbing.Hash, notCommits []plumbing.Hash) (ShallowResult, error) {
	excluded, err := policy.AncestrySet(db, notCommits)
	if err != nil {
		return ShallowResult{}, err
	}

	visited := make(map[plumbing.Hash]bool, len(wants))
	var queue []plumbing.Hash
	for _, w := range wants {
		if excluded[w] {
			continue
		}
		if !visited[w] {
			visited[w] = true
			queue = append(queue, w)
		}
	}

	shallow := make(map[plumbing.Hash]bool)
	anySelected := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		anySelected = true

		commit, err := object.GetCommit(db, cur)
		if err != nil {
			continue
		}

		cut := false
		for _, p := range commit.ParentHashes {
			if excluded[p] {
				cut = true
				continue
			}
			if !visited[p] {
				visited[p] = true
				queue = append(queue, p)
			}
		}
		if cut {
			shallow[cur] = true
		}
	}

	if !anySelected {
		return ShallowResult{}, errkind.ShallowRequestEmpty.New()
	}
	return ShallowResult{Shallow: shallow, Visited: visited}, nil
}

// FrontierDiff compares a newly computed shallow set against the
// client-declared shallow_in (§3's Shallow Plan): new_shallows is S' \
// shallow_in; unshallows is the subset of shallow_in that the walk
// actually visited (so the server knows its full ancestry) and that is
// no longer a boundary in S'. The two results are disjoint by
// construction, satisfying invariant `new_shallows ∩ unshallows = ∅`.
func FrontierDiff(result ShallowResult, shallowIn []plumbing.Hash) (newShallows, unshallows []plumbing.Hash) {
	inSet := make(map[plumbing.Hash]bool, len(shallowIn))
	for _, h := range shallowIn {
		inSet[h] = true
	}

	for h := range result.Shallow {
		if !inSet[h] {
			newShallows = append(newShallows, h)
		}
	}
	for h := range inSet {
		if !result.Shallow[h] && result.Visited[h] {
			unshallows = append(unshallows, h)
		}
	}
	return newShallows, unshallows
}
