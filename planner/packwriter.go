package planner

import (
	"io"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
	"github.com/gitproto/uploadpack/request"
	"github.com/gitproto/uploadpack/store"
)

// PackPlan is everything the Pack Writer Driver needs to invoke the
// external Pack Writer for one session (§4.6): the objects to send, the
// bases the client already has, which deltas it may use, and the
// exclusion set a filter already removed from the send set.
type PackPlan struct {
	SendSet   []plumbing.Hash
	Bases     []plumbing.Hash
	Exclusion Exclusion
	ThinPack  bool
	OfsDelta  bool
	Progress  io.Writer
}

// BuildPackPlan assembles a PackPlan from the negotiated common base, the
// wants, and any filter exclusion, applying the filter's omissions by
// removing them from the send set (§4.5: "the filtered set replaces the
// object's presence in the pack; it never alters Wants itself").
func BuildPackPlan(wants, common []plumbing.Hash, exclusion Exclusion, caps request.Capabilities, progress io.Writer) PackPlan {
	sendSet := make([]plumbing.Hash, 0, len(wants))
	for _, w := range wants {
		if exclusion.Omitted[w] {
			continue
		}
		sendSet = append(sendSet, w)
	}

	return PackPlan{
		SendSet:   sendSet,
		Bases:     common,
		Exclusion: exclusion,
		ThinPack:  caps.ThinPack,
		OfsDelta:  caps.OfsDelta,
		Progress:  progress,
	}
}

// Drive invokes pw with the plan's options and reports any write failure
// as an errkind.Resource error carrying the writer's message, mirroring the teacher's pattern of annotating low-level storage errors
// before they surface to a caller (archiver.go's use of errors.Wrap).
func Drive(pw store.PackWriter, plan PackPlan, sink io.Writer) error {
	opts := store.PackOptions{
		AllowThinPack: plan.ThinPack,
		AllowOfsDelta: plan.OfsDelta,
		Progress:      plan.Progress,
		Omit:          plan.Exclusion.Omitted,
	}
	if err := pw.Write(plan.SendSet, plan.Bases, opts, sink); err != nil {
		return errkind.Resource.New(err.Error())
	}
	return nil
}
