package request

import (
	"fmt"
	"time"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
)

// RefResolver resolves a symbolic reference name to the object identifier
// it currently points to (after peeling symbolic links, not tags). It is
// satisfied by the advertised-refs snapshot the Session Driver takes at the
// start of a session.
type RefResolver interface {
	Resolve(name string) (plumbing.Hash, bool)
}

// Builder accumulates a Request from a sequence of parsed protocol tokens,
// rejecting conflicting options (e.g. two different deepen modes) at the
// point they are parsed rather than leaving the ambiguity for a later
// consumer to resolve (§9, "parsed-request variants").
type Builder struct {
	req Request

	deepenSet bool
	filterSet bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddWant adds an explicitly requested object identifier.
func (b *Builder) AddWant(oid plumbing.Hash) {
	b.req.Wants = append(b.req.Wants, oid)
}

// AddWantRef resolves name against resolver and, on success, adds the
// resolved object to wants and records the mapping for the `wanted-refs`
// section. It fails with errkind.RefNotFound if name is absent.
func (b *Builder) AddWantRef(name string, resolver RefResolver) error {
	oid, ok := resolver.Resolve(name)
	if !ok {
		return errkind.RefNotFound.New(name)
	}
	b.req.Wants = append(b.req.Wants, oid)
	b.req.WantedRefs = append(b.req.WantedRefs, WantedRef{Name: name, Oid: oid})
	return nil
}

// AddHave appends a have the client claims to possess.
func (b *Builder) AddHave(oid plumbing.Hash) {
	b.req.Haves = append(b.req.Haves, oid)
}

// AddShallow records a client-declared shallow boundary. Per §9's "source
// ambiguities" note, an oid the server does not possess is accepted
// silently here; the Shallow Planner handles the absence later.
func (b *Builder) AddShallow(oid plumbing.Hash) {
	b.req.ShallowIn = append(b.req.ShallowIn, oid)
}

func (b *Builder) setDeepenKind(kind DeepenKind) error {
	if b.deepenSet && b.req.Deepen.Kind != kind {
		return errkind.Protocol.New(fmt.Sprintf("conflicting deepen option: already have %v, got %v", b.req.Deepen.Kind, kind))
	}
	b.deepenSet = true
	b.req.Deepen.Kind = kind
	return nil
}

// SetDeepenDepth sets `deepen <n>`. n must be >= 1.
func (b *Builder) SetDeepenDepth(n int) error {
	if n < 1 {
		return errkind.Protocol.New(fmt.Sprintf("deepen requires n >= 1, got %d", n))
	}
	if err := b.setDeepenKind(DeepenDepth); err != nil {
		return err
	}
	b.req.Deepen.Depth = n
	return nil
}

// SetDeepenSince sets `deepen-since <epoch>`.
func (b *Builder) SetDeepenSince(t time.Time) error {
	if err := b.setDeepenKind(DeepenSince); err != nil {
		return err
	}
	b.req.Deepen.Since = t
	return nil
}

// AddDeepenNot adds one `deepen-not <ref-or-oid>` argument. Multiple
// deepen-not arguments accumulate (SUPPLEMENTED FEATURES).
func (b *Builder) AddDeepenNot(refOrOid string) error {
	if err := b.setDeepenKind(DeepenNot); err != nil {
		return err
	}
	b.req.Deepen.Not = append(b.req.Deepen.Not, refOrOid)
	return nil
}

// SetFilter parses and sets the filter spec. allowFilter gates whether a
// non-empty filter is permitted at all (uploadpack.allowfilter).
func (b *Builder) SetFilter(spec string, allowFilter bool) error {
	if !allowFilter {
		return errkind.FilterNotAllowed.New(spec)
	}
	if b.filterSet {
		return errkind.Protocol.New("duplicate filter section")
	}
	f, err := ParseFilter(spec)
	if err != nil {
		return err
	}
	b.filterSet = true
	b.req.Filter = f
	return nil
}

// SetThinPack, SetNoProgress, SetIncludeTag, SetOfsDelta set the
// corresponding boolean capability.
func (b *Builder) SetThinPack()   { b.req.Capabilities.ThinPack = true }
func (b *Builder) SetNoProgress() { b.req.Capabilities.NoProgress = true }
func (b *Builder) SetIncludeTag() { b.req.Capabilities.IncludeTag = true }
func (b *Builder) SetOfsDelta()   { b.req.Capabilities.OfsDelta = true }

// SetSideBand sets the negotiated side-band mode.
func (b *Builder) SetSideBand(mode SideBandMode) { b.req.Capabilities.SideBand = mode }

// SetMultiAck sets the negotiated multi_ack mode.
func (b *Builder) SetMultiAck(mode MultiAckMode) { b.req.Capabilities.MultiAck = mode }

// SetAgent records the peer's advertised agent string.
func (b *Builder) SetAgent(agent string) { b.req.Capabilities.Agent = agent }

// AddServerOption appends a server-option value, forwarded opaquely to
// hooks (§3).
func (b *Builder) AddServerOption(opt string) {
	b.req.ServerOptions = append(b.req.ServerOptions, opt)
}

// SetDone records that the client sent `done`.
func (b *Builder) SetDone() { b.req.Done = true }

// Build freezes and returns the accumulated Request.
func (b *Builder) Build() *Request {
	req := b.req
	return &req
}
