package protocol_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/internal/gittest"
	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/protocol"
	"github.com/gitproto/uploadpack/store"
)

func buildSingleCommitRepo(t *testing.T) (*gittest.Repo, plumbing.Hash) {
	t.Helper()
	r := gittest.NewRepo()
	blob := r.Blob("hello world")
	tree := r.Tree(gittest.Entry{Name: "file.txt", Hash: blob})
	commit := r.Commit(tree, time.Now())
	r.SetRef(plumbing.NewBranchReferenceName("master"), commit)
	return r, commit
}

func TestRunV0FreshCloneWritesPack(t *testing.T) {
	r, commit := buildSingleCommitRepo(t)

	var clientInput bytes.Buffer
	cw := protocol.NewWriter(&clientInput)
	require.NoError(t, cw.Linef("want %s multi_ack_detailed ofs-delta\n", commit.String()))
	require.NoError(t, cw.Flush())
	require.NoError(t, cw.Line("done"))

	var output bytes.Buffer
	sess := &protocol.Session{
		DB:         r,
		Refs:       r,
		PackWriter: store.NewRevlistPackWriter(r),
		Config:     protocol.Config{Policy: policy.Advertised},
	}

	err := protocol.RunV0(sess, protocol.NewReader(&clientInput), protocol.NewWriter(&output))
	require.NoError(t, err)

	out := output.String()
	assert.Contains(t, out, "NAK")
	assert.Contains(t, out, "PACK")
}

func TestRunV0RejectsUnadvertisedWant(t *testing.T) {
	r, _ := buildSingleCommitRepo(t)
	bogus := plumbing.NewHash("deadbeefdeadbeefdeadbeefdeadbeefdeadbeef")

	var clientInput bytes.Buffer
	cw := protocol.NewWriter(&clientInput)
	require.NoError(t, cw.Linef("want %s\n", bogus.String()))
	require.NoError(t, cw.Flush())

	var output bytes.Buffer
	sess := &protocol.Session{
		DB:         r,
		Refs:       r,
		PackWriter: store.NewRevlistPackWriter(r),
		Config:     protocol.Config{Policy: policy.Advertised},
	}

	err := protocol.RunV0(sess, protocol.NewReader(&clientInput), protocol.NewWriter(&output))
	require.Error(t, err)
	assert.Contains(t, output.String(), "ERR")
}

func TestRunV0EmptyRequestIsNoop(t *testing.T) {
	r, _ := buildSingleCommitRepo(t)

	var clientInput bytes.Buffer
	cw := protocol.NewWriter(&clientInput)
	require.NoError(t, cw.Flush())

	var output bytes.Buffer
	sess := &protocol.Session{
		DB:         r,
		Refs:       r,
		PackWriter: store.NewRevlistPackWriter(r),
		Config:     protocol.Config{Policy: policy.Advertised},
	}

	err := protocol.RunV0(sess, protocol.NewReader(&clientInput), protocol.NewWriter(&output))
	require.NoError(t, err)
}
