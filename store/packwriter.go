package store

import (
	"io"

	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/format/packfile"
	"gopkg.in/src-d/go-git.v4/plumbing/object"
)

// RevlistPackWriter is a PackWriter that walks the full object closure
// reachable from sendSet, removes everything also reachable from bases,
// and streams the remainder as a packfile. Grounded on git.go's
// ResolveCommit/rootCommits object-walk style, generalized from "walk
// commit ancestry only" to "walk every object kind a commit closure
// touches" (commit -> tree -> blob, tag -> target).
type RevlistPackWriter struct {
	DB ObjectDatabase
}

// NewRevlistPackWriter returns a PackWriter backed by db.
func NewRevlistPackWriter(db ObjectDatabase) *RevlistPackWriter {
	return &RevlistPackWriter{DB: db}
}

// Write honors PackWriter.
func (w *RevlistPackWriter) Write(sendSet, bases []plumbing.Hash, opts PackOptions, sink io.Writer) error {
	excluded, err := closure(w.DB, bases)
	if err != nil {
		return err
	}
	included, err := closure(w.DB, sendSet)
	if err != nil {
		return err
	}

	hashes := make([]plumbing.Hash, 0, len(included))
	for h := range included {
		if excluded[h] || opts.Omit[h] {
			continue
		}
		hashes = append(hashes, h)
	}

	enc := packfile.NewEncoder(sink, w.DB, opts.AllowOfsDelta)
	_, err = enc.Encode(hashes, 10)
	return err
}

// closure returns every object reachable from roots: each commit pulls in
// its tree and parents, each tree pulls in its entries, each tag pulls in
// its target. Missing roots (e.g. a client's base the server never
// advertised) are skipped rather than treated as an error, since bases are
// untrusted client input.
func closure(db ObjectDatabase, roots []plumbing.Hash) (map[plumbing.Hash]bool, error) {
	seen := make(map[plumbing.Hash]bool)
	stack := append([]plumbing.Hash{}, roots...)

	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[h] {
			continue
		}

		obj, err := db.EncodedObject(plumbing.AnyObject, h)
		if err != nil {
			continue
		}
		seen[h] = true

		switch obj.Type() {
		case plumbing.CommitObject:
			c, err := object.DecodeCommit(db, obj)
			if err != nil {
				return nil, err
			}
			stack = append(stack, c.TreeHash)
			stack = append(stack, c.ParentHashes...)
		case plumbing.TreeObject:
			t, err := object.DecodeTree(db, obj)
			if err != nil {
				return nil, err
			}
			for _, e := range t.Entries {
				stack = append(stack, e.Hash)
			}
		case plumbing.TagObject:
			t, err := object.DecodeTag(db, obj)
			if err != nil {
				return nil, err
			}
			stack = append(stack, t.Target)
		}
	}

	return seen, nil
}
