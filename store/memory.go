package store

import (
	"gopkg.in/src-d/go-git.v4/storage/memory"
)

// NewMemoryStore returns a fresh in-memory object database and reference
// store, satisfying both ObjectDatabase and ReferenceStore. Grounded on
// git.go's `git.Init(memory.NewStorage(), nil)` use of storage/memory for
// throwaway repositories; here it backs the demo server when no --repo
// is given, instead of a clone scratch directory.
func NewMemoryStore() *memory.Storage {
	return memory.NewStorage()
}
