package protocol_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/protocol"
	"github.com/gitproto/uploadpack/store"
)

func TestRunV2LsRefsThenFetch(t *testing.T) {
	r, commit := buildSingleCommitRepo(t)

	var clientInput bytes.Buffer
	cw := protocol.NewWriter(&clientInput)
	require.NoError(t, cw.Line("command=ls-refs"))
	require.NoError(t, cw.Delim())
	require.NoError(t, cw.Flush())
	require.NoError(t, cw.Line("command=fetch"))
	require.NoError(t, cw.Delim())
	require.NoError(t, cw.Linef("want %s\n", commit.String()))
	require.NoError(t, cw.Line("done"))
	require.NoError(t, cw.Flush())

	var output bytes.Buffer
	sess := &protocol.Session{
		DB:         r,
		Refs:       r,
		PackWriter: store.NewRevlistPackWriter(r),
		Config:     protocol.Config{Policy: policy.Advertised},
	}

	err := protocol.RunV2(sess, protocol.NewReader(&clientInput), protocol.NewWriter(&output))
	require.NoError(t, err)

	out := output.String()
	assert.Contains(t, out, "refs/heads/master")
	assert.Contains(t, out, "acknowledgments")
	assert.Contains(t, out, "packfile")
	assert.Contains(t, out, "PACK")
}

func TestRunV2AdvertisesCapabilities(t *testing.T) {
	r, _ := buildSingleCommitRepo(t)

	var clientInput bytes.Buffer

	var output bytes.Buffer
	sess := &protocol.Session{
		DB:         r,
		Refs:       r,
		PackWriter: store.NewRevlistPackWriter(r),
		Config:     protocol.Config{Policy: policy.Advertised},
	}

	err := protocol.RunV2(sess, protocol.NewReader(&clientInput), protocol.NewWriter(&output))
	require.NoError(t, err)

	out := output.String()
	assert.Contains(t, out, "version 2")
	assert.Contains(t, out, "ls-refs")
	assert.Contains(t, out, "fetch=shallow filter")
}
