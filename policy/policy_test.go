package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/internal/gittest"
	"github.com/gitproto/uploadpack/store"
)

// buildLine builds a 3-commit line A -> B -> C (C is the tip, A is the
// root) and returns their hashes in that order.
func buildLine(r *gittest.Repo) (a, b, c plumbing.Hash) {
	empty := r.Tree()
	now := time.Now()
	a = r.Commit(empty, now.Add(-2*time.Hour))
	b = r.Commit(empty, now.Add(-1*time.Hour), a)
	c = r.Commit(empty, now, b)
	return a, b, c
}

func TestEngineAdvertisedPolicy(t *testing.T) {
	r := gittest.NewRepo()
	_, _, c := buildLine(r)
	unadvertised := r.Commit(r.Tree(), time.Now())

	e := &Engine{
		Policy:     Advertised,
		DB:         r,
		Advertised: map[plumbing.Hash]bool{c: true},
		AllTips:    map[plumbing.Hash]bool{c: true, unadvertised: true},
	}

	require.NoError(t, e.CheckWant(c))
	err := e.CheckWant(unadvertised)
	require.Error(t, err)
}

func TestEngineReachableCommitPolicy(t *testing.T) {
	r := gittest.NewRepo()
	a, b, c := buildLine(r)

	oracle := NewWalkOracle(r, []plumbing.Hash{c}, []plumbing.Hash{c})
	e := &Engine{
		Policy:     ReachableCommit,
		DB:         r,
		Oracle:     oracle,
		Advertised: map[plumbing.Hash]bool{c: true},
		AllTips:    map[plumbing.Hash]bool{c: true},
	}

	assert.NoError(t, e.CheckWant(c))
	assert.NoError(t, e.CheckWant(b))
	assert.NoError(t, e.CheckWant(a))

	other := r.Commit(r.Tree(), time.Now())
	assert.Error(t, e.CheckWant(other))
}

func TestEngineReachableCommitRejectsBlobWithoutBitmap(t *testing.T) {
	r := gittest.NewRepo()
	blob := r.Blob("hello")
	_, _, c := buildLine(r)

	oracle := NewWalkOracle(r, []plumbing.Hash{c}, []plumbing.Hash{c})
	e := &Engine{
		Policy:     ReachableCommit,
		DB:         r,
		Oracle:     oracle,
		Advertised: map[plumbing.Hash]bool{c: true},
		AllTips:    map[plumbing.Hash]bool{c: true},
	}

	assert.Error(t, e.CheckWant(blob))
}

func TestEngineAnyPolicyAcceptsAnything(t *testing.T) {
	r := gittest.NewRepo()
	blob := r.Blob("hello")

	e := &Engine{Policy: Any, DB: r}
	assert.NoError(t, e.CheckWant(blob))
}

func TestEngineTagPeeling(t *testing.T) {
	r := gittest.NewRepo()
	_, _, c := buildLine(r)
	tag := r.Tag("v1", c, plumbing.CommitObject)

	oracle := NewWalkOracle(r, []plumbing.Hash{c}, []plumbing.Hash{c})
	e := &Engine{
		Policy:     ReachableCommit,
		DB:         r,
		Oracle:     oracle,
		Advertised: map[plumbing.Hash]bool{c: true},
		AllTips:    map[plumbing.Hash]bool{c: true},
	}

	assert.NoError(t, e.CheckWant(tag))
}

func TestBitmapOracleConfirmsNonCommit(t *testing.T) {
	r := gittest.NewRepo()
	blob := r.Blob("hello")
	tree := r.Tree(gittest.Entry{Name: "f", Hash: blob})
	c := r.Commit(tree, time.Now())

	index := store.MemoryBitmapIndex{
		c: store.HashSet{blob: true, tree: true, c: true},
	}

	oracle := NewBitmapOracle(r, index, []plumbing.Hash{c}, []plumbing.Hash{c})
	e := &Engine{
		Policy:     ReachableCommit,
		DB:         r,
		Oracle:     oracle,
		Advertised: map[plumbing.Hash]bool{c: true},
		AllTips:    map[plumbing.Hash]bool{c: true},
	}

	assert.NoError(t, e.CheckWant(blob))
}
