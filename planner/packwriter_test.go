package planner

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/internal/gittest"
	"github.com/gitproto/uploadpack/request"
	"github.com/gitproto/uploadpack/store"
)

// TestDriveHonorsFilterExclusion proves the Exclusion a filter computes
// actually changes the bytes handed to the Pack Writer, not just the
// in-memory Exclusion value: a blob:none fetch of the same commit must
// produce a strictly smaller pack than an unfiltered fetch.
func TestDriveHonorsFilterExclusion(t *testing.T) {
	r := gittest.NewRepo()
	blob := r.Blob(string(make([]byte, 4096)))
	tree := r.Tree(gittest.Entry{Name: "big.bin", Hash: blob})
	commit := r.Commit(tree, time.Now())

	pw := store.NewRevlistPackWriter(r)
	wants := []plumbing.Hash{commit}

	var filtered, unfiltered bytes.Buffer

	noneExclusion, err := ApplyFilter(r, wants, map[plumbing.Hash]bool{}, request.Filter{Kind: request.FilterBlobNone})
	require.NoError(t, err)
	require.True(t, noneExclusion.Omitted[blob])
	filteredPlan := BuildPackPlan(wants, nil, noneExclusion, request.Capabilities{}, nil)
	require.NoError(t, Drive(pw, filteredPlan, &filtered))

	plainPlan := BuildPackPlan(wants, nil, newExclusion(), request.Capabilities{}, nil)
	require.NoError(t, Drive(pw, plainPlan, &unfiltered))

	assert.Less(t, filtered.Len(), unfiltered.Len())
}
