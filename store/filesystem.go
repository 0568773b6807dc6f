package store

import (
	"gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-git.v4/plumbing/cache"
	"gopkg.in/src-d/go-git.v4/storage/filesystem"
)

// NewFilesystemStore returns an object database and reference store backed
// by a .git directory on fs. Grounded on git.go's
// `filesystem.NewStorage(tmpFs)` call when cloning into a scratch
// directory; here it backs the demo server when it is pointed at a real
// repository on disk instead of an in-memory one.
func NewFilesystemStore(fs billy.Filesystem) (*filesystem.Storage, error) {
	return filesystem.NewStorage(fs, cache.NewObjectLRUDefault()), nil
}
