package protocol

import (
	"strings"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
	"github.com/gitproto/uploadpack/negotiate"
	"github.com/gitproto/uploadpack/planner"
	"github.com/gitproto/uploadpack/request"
)

const v0Capabilities = "multi_ack_detailed side-band-64k thin-pack ofs-delta include-tag"

const zeroHashHex = "0000000000000000000000000000000000000000"

// RunV0 drives the V0 state machine (§4.1): AdvertiseRefs, ReceiveWants,
// Negotiate, optional ShallowExchange, SendPack, Done.
func RunV0(sess *Session, r *Reader, w *Writer) error {
	snap, oracle, err := sess.Prepare()
	if err != nil {
		return err
	}
	engine := sess.Engine(snap, oracle)

	if sess.Hooks.OnCapabilities != nil {
		sess.Hooks.OnCapabilities()
	}
	if err := advertiseRefsV0(snap, w); err != nil {
		return err
	}

	req, err := receiveWantsV0(r, snap)
	if err != nil {
		return writeV0Error(w, err)
	}
	if len(req.Wants) == 0 && len(req.WantedRefs) == 0 {
		// Client opened a session and closed it without wanting
		// anything; nothing to negotiate or send.
		return nil
	}
	if sess.Hooks.OnFetch != nil {
		sess.Hooks.OnFetch(req)
	}

	for oid := range req.WantSet() {
		if err := engine.CheckWant(oid); err != nil {
			return writeV0Error(w, err)
		}
	}

	n := negotiate.NewV0Negotiator(req.Capabilities.MultiAck, sess.DB, req.Wants)
	if err := runNegotiationV0(r, n, w); err != nil {
		return writeV0Error(w, err)
	}

	shallowPlan, err := computeShallowPlan(sess.DB, snap, req)
	if err != nil {
		return writeV0Error(w, err)
	}
	if err := writeShallowInfoV0(w, shallowPlan); err != nil {
		return err
	}

	exclusion, err := planner.ApplyFilter(sess.DB, req.Wants, req.WantSet(), req.Filter)
	if err != nil {
		return writeV0Error(w, err)
	}
	sink, progress, fatal := packSink(w, req.Capabilities.SideBand, req.Capabilities.NoProgress)
	plan := planner.BuildPackPlan(req.Wants, n.Common(), exclusion, req.Capabilities, progress)
	if err := planner.Drive(sess.PackWriter, plan, sink); err != nil {
		_ = fatal(err.Error())
		return err
	}
	return nil
}

// advertiseRefsV0 emits each advertised ref, capability suffixes on the
// first line, terminated by flush (§4.1, S1).
func advertiseRefsV0(snap *RefSnapshot, w *Writer) error {
	if len(snap.Advertised) == 0 {
		if err := w.Linef("%s capabilities^{}\x00%s\n", zeroHashHex, v0Capabilities); err != nil {
			return err
		}
		return w.Flush()
	}
	for i, ref := range snap.Advertised {
		if i == 0 {
			if err := w.Linef("%s %s\x00%s\n", ref.Hash().String(), ref.Name().String(), v0Capabilities); err != nil {
				return err
			}
			continue
		}
		if err := w.Linef("%s %s\n", ref.Hash().String(), ref.Name().String()); err != nil {
			return err
		}
	}
	return w.Flush()
}

// receiveWantsV0 reads the want/have-prefixed request section up to the
// first flush. The first `want` line may carry capabilities; every
// other line shares V2's `fetch` argument grammar exactly (`want`,
// `shallow`, `deepen`, `deepen-since`, `deepen-not`, `filter`, the bare
// capability flags), so it is parsed through the same ParseV2Fetch
// machinery once the first line's capability suffix has been split off.
func receiveWantsV0(r *Reader, snap *RefSnapshot) (*request.Request, error) {
	lines, _, err := r.ReadSection()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return &request.Request{}, nil
	}

	oid, caps, err := request.ParseV0WantLine(lines[0], true)
	if err != nil {
		return nil, err
	}
	lines[0] = "want " + oid.String()

	req, err := request.ParseV2Fetch(lines, request.FetchOptions{Resolver: snap})
	if err != nil {
		return nil, err
	}
	request.ApplyCapabilitiesToRequest(req, caps)
	return req, nil
}

// runNegotiationV0 alternates reading `have`/`done` lines with writing
// ACK/NAK replies until the client sends `done` (§4.4).
func runNegotiationV0(r *Reader, n *negotiate.V0Negotiator, w *Writer) error {
	var last plumbing.Hash
	for {
		kind, line, err := r.Next()
		if err != nil {
			return errkind.ClientDisconnect.New(err.Error())
		}
		if kind == LineFlush {
			continue
		}
		if line == "done" {
			return w.Line(n.Done(last))
		}
		if !strings.HasPrefix(line, "have ") {
			return errkind.Protocol.New("unexpected line in negotiation: " + line)
		}
		oid, err := request.ParseV0HaveLine(line)
		if err != nil {
			return err
		}
		acks, err := n.HandleHave(oid)
		if err != nil {
			return err
		}
		if len(acks) > 0 {
			last = oid
		}
		for _, ack := range acks {
			if err := w.Line(ack); err != nil {
				return err
			}
		}
		// Readiness under multi_ack_detailed is already signaled inline
		// via "ACK <oid> ready"; plain and multi_ack clients still send
		// an explicit `done` to close out the round regardless.
	}
}

// writeShallowInfoV0 writes `shallow`/`unshallow` lines ahead of the
// packfile when the request touched the shallow boundary.
func writeShallowInfoV0(w *Writer, plan *shallowOutcome) error {
	if plan == nil {
		return nil
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
	return nil
}

// writeV0Error writes a pre-pack `ERR <text>` line (§7) and returns the
// original error to the caller, so the daemon can log and count it.
func writeV0Error(w *Writer, err error) error {
	_ = w.Linef("ERR %s\n", err.Error())
	return err
}
