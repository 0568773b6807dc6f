package protocol

import (
	"io"

	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/store"
)

// Session holds the external collaborators and configuration for one
// upload-pack exchange (§6's consumed contracts), plus the ref snapshot
// taken once at session start (§5).
type Session struct {
	DB          store.ObjectDatabase
	Refs        store.ReferenceStore
	BitmapIndex store.BitmapIndex
	PackWriter  store.PackWriter
	Progress    io.Writer

	Config Config
	Hooks  Hooks

	snapshot *RefSnapshot
}

// Prepare takes the ref snapshot and builds the reachability oracle the
// session's policy engine will hold for its lifetime (§9: "the policy
// engine holds a reference to the oracle rather than dispatching
// dynamically per call site").
func (s *Session) Prepare() (*RefSnapshot, policy.Oracle, error) {
	snap, err := NewRefSnapshot(s.Refs, s.Config.RefFilter)
	if err != nil {
		return nil, nil, err
	}
	s.snapshot = snap

	advertised := snap.AdvertisedHashes()
	allTips := snap.AllTipHashes()

	if s.BitmapIndex != nil {
		return snap, policy.NewBitmapOracle(s.DB, s.BitmapIndex, advertised, allTips), nil
	}
	return snap, policy.NewWalkOracle(s.DB, advertised, allTips), nil
}

// Engine builds the policy engine for this session over the given
// snapshot and oracle.
func (s *Session) Engine(snap *RefSnapshot, oracle policy.Oracle) *policy.Engine {
	return &policy.Engine{
		Policy:     s.Config.Policy,
		Oracle:     oracle,
		DB:         s.DB,
		Advertised: snap.AdvertisedSet(),
		AllTips:    snap.AllTipsSet(),
	}
}
