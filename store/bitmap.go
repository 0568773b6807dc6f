package store

import "gopkg.in/src-d/go-git.v4/plumbing"

// HashSet is a Bitmap backed by a plain set, used by MemoryBitmapIndex and
// by tests that want to hand-construct a precomputed reachability set
// without a real bitmap-index file.
type HashSet map[plumbing.Hash]bool

// Contains honors Bitmap.
func (s HashSet) Contains(oid plumbing.Hash) bool { return s[oid] }

// Each honors Bitmap.
func (s HashSet) Each(f func(plumbing.Hash) bool) {
	for oid := range s {
		if !f(oid) {
			return
		}
	}
}

// MemoryBitmapIndex is a BitmapIndex backed by a plain map from commit to
// precomputed reachable set, standing in for a real on-disk bitmap index
// file in tests and the demo server.
type MemoryBitmapIndex map[plumbing.Hash]HashSet

// BitmapOf honors BitmapIndex.
func (m MemoryBitmapIndex) BitmapOf(commit plumbing.Hash) (Bitmap, bool) {
	b, ok := m[commit]
	return b, ok
}
