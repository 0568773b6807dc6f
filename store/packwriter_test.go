package store_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/internal/gittest"
	"github.com/gitproto/uploadpack/store"
)

func TestRevlistPackWriterWritesFullClosure(t *testing.T) {
	r := gittest.NewRepo()
	blob := r.Blob("hello")
	tree := r.Tree(gittest.Entry{Name: "file.txt", Hash: blob})
	commit := r.Commit(tree, time.Now())

	w := store.NewRevlistPackWriter(r)

	var buf bytes.Buffer
	err := w.Write([]plumbing.Hash{commit}, nil, store.PackOptions{AllowOfsDelta: true}, &buf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PACK")))
}

func TestRevlistPackWriterExcludesBaseClosure(t *testing.T) {
	r := gittest.NewRepo()
	blobA := r.Blob("a")
	treeA := r.Tree(gittest.Entry{Name: "a.txt", Hash: blobA})
	base := r.Commit(treeA, time.Now())

	blobB := r.Blob("b")
	treeB := r.Tree(
		gittest.Entry{Name: "a.txt", Hash: blobA},
		gittest.Entry{Name: "b.txt", Hash: blobB},
	)
	tip := r.Commit(treeB, time.Now().Add(time.Hour), base)

	w := store.NewRevlistPackWriter(r)

	var withBase, withoutBase bytes.Buffer
	require.NoError(t, w.Write([]plumbing.Hash{tip}, []plumbing.Hash{base}, store.PackOptions{}, &withBase))
	require.NoError(t, w.Write([]plumbing.Hash{tip}, nil, store.PackOptions{}, &withoutBase))

	assert.Less(t, withBase.Len(), withoutBase.Len())
}
