package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/internal/gittest"
)

// chain builds a -> b -> c -> d, each an hour apart, a being oldest.
func chain(r *gittest.Repo) (a, b, c, d plumbing.Hash) {
	empty := r.Tree()
	now := time.Now()
	a = r.Commit(empty, now.Add(-3*time.Hour))
	b = r.Commit(empty, now.Add(-2*time.Hour), a)
	c = r.Commit(empty, now.Add(-1*time.Hour), b)
	d = r.Commit(empty, now, c)
	return
}

func TestDeepenByDepthOne(t *testing.T) {
	r := gittest.NewRepo()
	_, _, _, d := chain(r)

	res, err := DeepenByDepth(r, []plumbing.Hash{d}, 1)
	require.NoError(t, err)
	assert.True(t, res.Shallow[d])
	assert.Len(t, res.Shallow, 1)
}

func TestDeepenByDepthThree(t *testing.T) {
	r := gittest.NewRepo()
	a, b, c, d := chain(r)

	res, err := DeepenByDepth(r, []plumbing.Hash{d}, 3)
	require.NoError(t, err)
	assert.True(t, res.Shallow[b])
	assert.False(t, res.Shallow[c])
	assert.False(t, res.Shallow[d])
	assert.True(t, res.Visited[c])
	assert.False(t, res.Visited[a])
}

func TestDeepenSinceSelectsRecent(t *testing.T) {
	r := gittest.NewRepo()
	a, b, c, d := chain(r)

	res, err := DeepenSince(r, []plumbing.Hash{d}, time.Now().Add(-90*time.Minute))
	require.NoError(t, err)
	assert.True(t, res.Shallow[c])
	assert.False(t, res.Shallow[d])
	assert.True(t, res.Visited[c])
	assert.False(t, res.Visited[b])
	_ = a
}

func TestDeepenSinceEmptySelectionErrors(t *testing.T) {
	r := gittest.NewRepo()
	empty := r.Tree()
	old := r.Commit(empty, time.Now().Add(-48*time.Hour))

	_, err := DeepenSince(r, []plumbing.Hash{old}, time.Now())
	assert.Error(t, err)
}

func TestDeepenNotExcludesAncestry(t *testing.T) {
	r := gittest.NewRepo()
	a, b, c, d := chain(r)

	res, err := DeepenNot(r, []plumbing.Hash{d}, []plumbing.Hash{b})
	require.NoError(t, err)
	assert.True(t, res.Visited[d])
	assert.True(t, res.Visited[c])
	assert.False(t, res.Visited[b])
	assert.False(t, res.Visited[a])
	assert.True(t, res.Shallow[c])
}

func TestDeepenNotEmptySelectionErrors(t *testing.T) {
	r := gittest.NewRepo()
	a, _, _, _ := chain(r)

	_, err := DeepenNot(r, []plumbing.Hash{a}, []plumbing.Hash{a})
	assert.Error(t, err)
}

func TestFrontierDiff(t *testing.T) {
	r := gittest.NewRepo()
	_, b, _, d := chain(r)

	// Deepening from b (the client's current shallow boundary) out to
	// the root: a has no parents, so it never becomes a new boundary,
	// and b — now fully visited and no longer a cut point — unshallows.
	res, err := DeepenByDepth(r, []plumbing.Hash{d}, 4)
	require.NoError(t, err)

	newShallows, unshallows := FrontierDiff(res, []plumbing.Hash{b})
	assert.Empty(t, newShallows)
	assert.Contains(t, unshallows, b)
}
