package protocol

import (
	"github.com/gitproto/uploadpack/negotiate"
	"github.com/gitproto/uploadpack/planner"
	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/request"
)

// handleFetch answers a `fetch` command (§4.2, §4.4, §4.5, §4.6). It
// returns done=true once a packfile has been sent, signaling RunV2 that
// the session is finished (§5's sessions are single exchanges in this
// driver; nothing downstream expects a second command after the pack).
func handleFetch(sess *Session, snap *RefSnapshot, engine *policy.Engine, args []string, w *Writer) (bool, error) {
	req, err := request.ParseV2Fetch(args, request.FetchOptions{
		Resolver:       snap,
		AllowRefInWant: sess.Config.AllowRefInWant,
		AllowFilter:    sess.Config.AllowFilter,
	})
	if err != nil {
		return false, err
	}
	if sess.Hooks.OnFetch != nil {
		sess.Hooks.OnFetch(req)
	}

	for oid := range req.WantSet() {
		if err := engine.CheckWant(oid); err != nil {
			return false, err
		}
	}

	result, err := negotiate.NegotiateV2(sess.DB, req.Wants, req.Haves, req.Done)
	if err != nil {
		return false, err
	}

	if err := writeAcknowledgments(w, result, !result.ProceedToPack); err != nil {
		return false, err
	}
	if !result.ProceedToPack {
		return false, nil
	}

	shallowPlan, err := computeShallowPlan(sess.DB, snap, req)
	if err != nil {
		return false, err
	}
	if err := writeShallowInfoV2(w, shallowPlan, false); err != nil {
		return false, err
	}

	if err := writeWantedRefs(w, req.WantedRefs, false); err != nil {
		return false, err
	}

	exclusion, err := planner.ApplyFilter(sess.DB, req.Wants, req.WantSet(), req.Filter)
	if err != nil {
		return false, err
	}
	sink, progress, fatal := packSink(w, request.SideBand64k, req.Capabilities.NoProgress)
	plan := planner.BuildPackPlan(req.Wants, result.Common, exclusion, req.Capabilities, progress)

	if err := w.Line("packfile"); err != nil {
		return false, err
	}
	if err := planner.Drive(sess.PackWriter, plan, sink); err != nil {
		_ = fatal(err.Error())
		return false, err
	}
	return true, w.Flush()
}

func writeAcknowledgments(w *Writer, result negotiate.V2Result, isLast bool) error {
	if err := w.Line("acknowledgments"); err != nil {
		return err
	}
	if !result.HasCommon {
		if err := w.Line("NAK"); err != nil {
			return err
		}
	} else {
		for _, h := range result.Common {
			if err := w.Linef("ACK %s\n", h.String()); err != nil {
				return err
			}
		}
		if result.CoverageReady {
			if err := w.Line("ready"); err != nil {
				return err
			}
		}
	}
	return endSection(w, isLast)
}

func writeShallowInfoV2(w *Writer, plan *shallowOutcome, isLast bool) error {
	if plan == nil {
		return nil
	}
	if err := w.Line("shallow-info"); err != nil {
		return err
	}
	for _, h := range plan.NewShallows {
		if err := w.Linef("shallow %s\n", h.String()); err != nil {
			return err
		}
	}
	for _, h := range plan.Unshallows {
		if err := w.Linef("unshallow %s\n", h.String()); err != nil {
			return err
		}
	}
	return endSection(w, isLast)
}

func writeWantedRefs(w *Writer, refs []request.WantedRef, isLast bool) error {
	if len(refs) == 0 {
		return nil
	}
	if err := w.Line("wanted-refs"); err != nil {
		return err
	}
	for _, r := range refs {
		if err := w.Linef("%s %s\n", r.Oid.String(), r.Name); err != nil {
			return err
		}
	}
	return endSection(w, isLast)
}

func endSection(w *Writer, isLast bool) error {
	if isLast {
		return w.Flush()
	}
	return w.Delim()
}
