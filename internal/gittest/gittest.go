// Package gittest builds tiny, self-contained commit graphs directly on
// top of go-git.v4's object encoding, for use by package tests across the
// module.
//
// The teacher's test suites (fixtures_test.go, archiver_test.go) build
// their scenarios from gopkg.in/src-d/go-git-fixtures.v3, which fetches a
// bundled set of real repositories from a git submodule at test time.
// That data is not available in this environment, so tests here build
// equivalent tiny graphs directly with go-git.v4/plumbing/object encoded
// into storage/memory — the same real object types, just constructed by
// hand instead of loaded from a fixture.
package gittest

import (
	"time"

	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/filemode"
	"gopkg.in/src-d/go-git.v4/plumbing/object"
	"gopkg.in/src-d/go-git.v4/plumbing/storer"
	"gopkg.in/src-d/go-git.v4/storage/memory"
)

// Repo is a scratch, in-memory object database and reference store for
// tests.
type Repo struct {
	*memory.Storage
}

// NewRepo returns an empty scratch repository.
func NewRepo() *Repo {
	return &Repo{memory.NewStorage()}
}

// Blob stores content as a blob object and returns its hash.
func (r *Repo) Blob(content string) plumbing.Hash {
	obj := r.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		panic(err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		panic(err)
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	h, err := r.SetEncodedObject(obj)
	if err != nil {
		panic(err)
	}
	return h
}

// Entry names one entry of a tree built with Tree.
type Entry struct {
	Name string
	Hash plumbing.Hash
	Dir  bool
}

// Tree stores a tree with the given entries and returns its hash.
// Directory entries use mode 0040000; blob entries use mode 0100644.
func (r *Repo) Tree(entries ...Entry) plumbing.Hash {
	t := &object.Tree{}
	for _, e := range entries {
		mode := filemode.FileMode(0o100644)
		if e.Dir {
			mode = filemode.FileMode(0o040000)
		}
		t.Entries = append(t.Entries, object.TreeEntry{
			Name: e.Name,
			Mode: mode,
			Hash: e.Hash,
		})
	}
	obj := r.NewEncodedObject()
	if err := t.Encode(obj); err != nil {
		panic(err)
	}
	h, err := r.SetEncodedObject(obj)
	if err != nil {
		panic(err)
	}
	return h
}

// Commit stores a commit pointing at tree with the given parents and
// committer timestamp, and returns its hash.
func (r *Repo) Commit(tree plumbing.Hash, when time.Time, parents ...plumbing.Hash) plumbing.Hash {
	sig := object.Signature{Name: "test", Email: "test@example.com", When: when}
	c := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      "test commit",
		TreeHash:     tree,
		ParentHashes: parents,
	}
	obj := r.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		panic(err)
	}
	h, err := r.SetEncodedObject(obj)
	if err != nil {
		panic(err)
	}
	return h
}

// Tag stores an annotated tag pointing at target and returns its hash.
func (r *Repo) Tag(name string, target plumbing.Hash, targetType plumbing.ObjectType) plumbing.Hash {
	sig := object.Signature{Name: "test", Email: "test@example.com", When: time.Now()}
	tag := &object.Tag{
		Name:       name,
		Tagger:     sig,
		Message:    "test tag",
		TargetType: targetType,
		Target:     target,
	}
	obj := r.NewEncodedObject()
	if err := tag.Encode(obj); err != nil {
		panic(err)
	}
	h, err := r.SetEncodedObject(obj)
	if err != nil {
		panic(err)
	}
	return h
}

// SetRef points name at target in the repository's reference store.
func (r *Repo) SetRef(name plumbing.ReferenceName, target plumbing.Hash) {
	if err := r.SetReference(plumbing.NewHashReference(name, target)); err != nil {
		panic(err)
	}
}

var _ storer.EncodedObjectStorer = (*memory.Storage)(nil)
