package policy

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/store"
)

// BitmapOracle answers reachability queries by testing each tip's
// precomputed bitmap first, falling back to a bounded walk for whichever
// tips have no bitmap (§4.3: "For reachability, the engine uses bitmaps
// when available... Absent bitmaps, a bounded commit-graph traversal...
// is performed").
type BitmapOracle struct {
	index store.BitmapIndex

	bitmapAdvertised []plumbing.Hash
	bitmapAll        []plumbing.Hash

	walkAdvertised *WalkOracle
	walkAll        *WalkOracle

	hasWalkAdvertised bool
	hasWalkAll        bool
}

// NewBitmapOracle returns a bitmap-backed Oracle, walking only the tips
// the index has no bitmap for.
func NewBitmapOracle(db store.ObjectDatabase, index store.BitmapIndex, advertisedTips, allTips []plumbing.Hash) *BitmapOracle {
	bmAd, noBmAd := partition(index, advertisedTips)
	bmAll, noBmAll := partition(index, allTips)

	return &BitmapOracle{
		index:             index,
		bitmapAdvertised:  bmAd,
		bitmapAll:         bmAll,
		walkAdvertised:    NewWalkOracle(db, noBmAd, noBmAd),
		walkAll:           NewWalkOracle(db, noBmAll, noBmAll),
		hasWalkAdvertised: len(noBmAd) > 0,
		hasWalkAll:        len(noBmAll) > 0,
	}
}

func partition(index store.BitmapIndex, tips []plumbing.Hash) (withBitmap, without []plumbing.Hash) {
	for _, t := range tips {
		if _, ok := index.BitmapOf(t); ok {
			withBitmap = append(withBitmap, t)
		} else {
			without = append(without, t)
		}
	}
	return withBitmap, without
}

func (o *BitmapOracle) testBitmaps(oid plumbing.Hash, tips []plumbing.Hash) bool {
	for _, tip := range tips {
		bmp, ok := o.index.BitmapOf(tip)
		if ok && bmp.Contains(oid) {
			return true
		}
	}
	return false
}

// ReachableFromAdvertised honors Oracle.
func (o *BitmapOracle) ReachableFromAdvertised(oid plumbing.Hash) (bool, error) {
	if o.testBitmaps(oid, o.bitmapAdvertised) {
		return true, nil
	}
	if !o.hasWalkAdvertised {
		return false, nil
	}
	return o.walkAdvertised.ReachableFromAdvertised(oid)
}

// ReachableFromAny honors Oracle.
func (o *BitmapOracle) ReachableFromAny(oid plumbing.Hash) (bool, error) {
	if o.testBitmaps(oid, o.bitmapAll) {
		return true, nil
	}
	if !o.hasWalkAll {
		return false, nil
	}
	return o.walkAll.ReachableFromAny(oid)
}

// ConfirmedViaBitmap honors BitmapConfirmer: it reports true only when an
// actual bitmap lookup contains oid, never falling back to a walk.
func (o *BitmapOracle) ConfirmedViaBitmap(oid plumbing.Hash, advertised bool) bool {
	if advertised {
		return o.testBitmaps(oid, o.bitmapAdvertised)
	}
	return o.testBitmaps(oid, o.bitmapAll)
}
