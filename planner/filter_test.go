package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/internal/gittest"
	"github.com/gitproto/uploadpack/request"
)

func buildTreeRepo(r *gittest.Repo) (root plumbing.Hash, small, large plumbing.Hash, nested plumbing.Hash) {
	small = r.Blob("x")
	large = r.Blob(string(make([]byte, 4096)))
	inner := r.Tree(gittest.Entry{Name: "deep.txt", Hash: small})
	nested = inner
	root = r.Tree(
		gittest.Entry{Name: "small.txt", Hash: small},
		gittest.Entry{Name: "large.bin", Hash: large},
		gittest.Entry{Name: "sub", Hash: inner, Dir: true},
	)
	return
}

func TestApplyFilterBlobNoneExcludesAllBlobs(t *testing.T) {
	r := gittest.NewRepo()
	root, small, large, _ := buildTreeRepo(r)
	commit := r.Commit(root, time.Now())

	f := request.Filter{Kind: request.FilterBlobNone}
	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{}, f)
	require.NoError(t, err)
	assert.True(t, ex.Omitted[small])
	assert.True(t, ex.Omitted[large])
}

func TestApplyFilterBlobNoneKeepsExplicitWant(t *testing.T) {
	r := gittest.NewRepo()
	root, small, _, _ := buildTreeRepo(r)
	commit := r.Commit(root, time.Now())

	f := request.Filter{Kind: request.FilterBlobNone}
	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{small: true}, f)
	require.NoError(t, err)
	assert.False(t, ex.Omitted[small])
}

func TestApplyFilterBlobLimitOnlyExcludesOversize(t *testing.T) {
	r := gittest.NewRepo()
	root, small, large, _ := buildTreeRepo(r)
	commit := r.Commit(root, time.Now())

	f := request.Filter{Kind: request.FilterBlobLimit, Limit: 1024}
	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{}, f)
	require.NoError(t, err)
	assert.False(t, ex.Omitted[small])
	assert.True(t, ex.Omitted[large])
}

// buildDepthTreeRepo builds a three-level tree with a distinct blob at
// every level, so a tree:N test can assert inclusion/exclusion by hash
// without two different depths of the same object racing to decide its
// fate.
func buildDepthTreeRepo(r *gittest.Repo) (root, fileAtDepth1, mid, fileAtDepth2, leaf, fileAtDepth3 plumbing.Hash) {
	fileAtDepth3 = r.Blob("depth3")
	leaf = r.Tree(gittest.Entry{Name: "file2.txt", Hash: fileAtDepth3})
	fileAtDepth2 = r.Blob("depth2")
	mid = r.Tree(
		gittest.Entry{Name: "file1.txt", Hash: fileAtDepth2},
		gittest.Entry{Name: "leaf", Hash: leaf, Dir: true},
	)
	fileAtDepth1 = r.Blob("depth1")
	root = r.Tree(
		gittest.Entry{Name: "file0.txt", Hash: fileAtDepth1},
		gittest.Entry{Name: "mid", Hash: mid, Dir: true},
	)
	return
}

func TestApplyFilterTreeDepth0ExcludesRootTree(t *testing.T) {
	r := gittest.NewRepo()
	root, fileAtDepth1, mid, fileAtDepth2, leaf, fileAtDepth3 := buildDepthTreeRepo(r)
	commit := r.Commit(root, time.Now())

	f := request.Filter{Kind: request.FilterTreeDepth, Depth: 0}
	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{}, f)
	require.NoError(t, err)
	assert.True(t, ex.Omitted[root])
	assert.True(t, ex.Omitted[fileAtDepth1])
	assert.True(t, ex.Omitted[mid])
	assert.True(t, ex.Omitted[fileAtDepth2])
	assert.True(t, ex.Omitted[leaf])
	assert.True(t, ex.Omitted[fileAtDepth3])
}

func TestApplyFilterTreeDepth1ExcludesRootsChildrenButKeepsRoot(t *testing.T) {
	r := gittest.NewRepo()
	root, fileAtDepth1, mid, fileAtDepth2, leaf, fileAtDepth3 := buildDepthTreeRepo(r)
	commit := r.Commit(root, time.Now())

	f := request.Filter{Kind: request.FilterTreeDepth, Depth: 1}
	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{}, f)
	require.NoError(t, err)
	assert.False(t, ex.Omitted[root])
	assert.True(t, ex.Omitted[fileAtDepth1])
	assert.True(t, ex.Omitted[mid])
	assert.True(t, ex.Omitted[fileAtDepth2])
	assert.True(t, ex.Omitted[leaf])
	assert.True(t, ex.Omitted[fileAtDepth3])
}

func TestApplyFilterTreeDepth2KeepsRootsChildrenExcludesGrandchildren(t *testing.T) {
	r := gittest.NewRepo()
	root, fileAtDepth1, mid, fileAtDepth2, leaf, fileAtDepth3 := buildDepthTreeRepo(r)
	commit := r.Commit(root, time.Now())

	f := request.Filter{Kind: request.FilterTreeDepth, Depth: 2}
	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{}, f)
	require.NoError(t, err)
	assert.False(t, ex.Omitted[root])
	assert.False(t, ex.Omitted[fileAtDepth1])
	assert.False(t, ex.Omitted[mid])
	assert.True(t, ex.Omitted[fileAtDepth2])
	assert.True(t, ex.Omitted[leaf])
	assert.True(t, ex.Omitted[fileAtDepth3])
}

func TestApplyFilterNoneOmitsNothing(t *testing.T) {
	r := gittest.NewRepo()
	root, _, _, _ := buildTreeRepo(r)
	commit := r.Commit(root, time.Now())

	ex, err := ApplyFilter(r, []plumbing.Hash{commit}, map[plumbing.Hash]bool{}, request.Filter{Kind: request.FilterNone})
	require.NoError(t, err)
	assert.Empty(t, ex.Omitted)
}
