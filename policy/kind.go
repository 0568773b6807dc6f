package policy

import (
	"gopkg.in/src-d/go-git.v4/plumbing"
	"gopkg.in/src-d/go-git.v4/plumbing/object"

	"github.com/gitproto/uploadpack/store"
)

// PeelToCommit resolves oid to a commit: if oid already names a commit it
// is returned unchanged; if it names an annotated tag, its chain is
// peeled to the commit it bottoms out at (§3's "peeling resolves a tag
// chain to its non-tag target"). ok is false if oid is neither.
func PeelToCommit(db store.ObjectDatabase, oid plumbing.Hash) (plumbing.Hash, bool, error) {
	kind, err := kindOf(db, oid)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	switch kind {
	case plumbing.CommitObject:
		return oid, true, nil
	case plumbing.TagObject:
		return peelTagToCommit(db, oid)
	default:
		return plumbing.ZeroHash, false, nil
	}
}

func kindOf(db store.ObjectDatabase, oid plumbing.Hash) (plumbing.ObjectType, error) {
	obj, err := db.EncodedObject(plumbing.AnyObject, oid)
	if err != nil {
		return 0, err
	}
	return obj.Type(), nil
}

// peelTagToCommit decodes the tag at oid and peels its target chain to a
// commit, mirroring plumbing.Reference peeling (§3). ok is false if the
// tag's chain does not bottom out at a commit.
func peelTagToCommit(db store.ObjectDatabase, oid plumbing.Hash) (plumbing.Hash, bool, error) {
	encoded, err := db.EncodedObject(plumbing.TagObject, oid)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	tag, err := object.DecodeTag(db, encoded)
	if err != nil {
		return plumbing.ZeroHash, false, err
	}
	commit, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, false, nil
	}
	return commit.Hash, true, nil
}
