package request

import (
	"strings"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
)

// ParseV0WantLine parses a V0 `want <oid>[ <capabilities...>]` line. Only
// the first want line in a V0 session carries capabilities; callers must
// only request them for that line.
func ParseV0WantLine(line string, withCapabilities bool) (oid plumbing.Hash, caps []string, err error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "want" {
		return plumbing.ZeroHash, nil, errkind.Protocol.New("malformed want line: " + line)
	}
	oid, err = parseHash(fields[1])
	if err != nil {
		return plumbing.ZeroHash, nil, err
	}
	if withCapabilities {
		caps = fields[2:]
	} else if len(fields) > 2 {
		return plumbing.ZeroHash, nil, errkind.Protocol.New("unexpected capabilities on want line: " + line)
	}
	return oid, caps, nil
}

// ParseV0HaveLine parses a V0 `have <oid>` line.
func ParseV0HaveLine(line string) (plumbing.Hash, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "have" {
		return plumbing.ZeroHash, errkind.Protocol.New("malformed have line: " + line)
	}
	return parseHash(fields[1])
}

// ParseV0ShallowLine parses a V0 `shallow <oid>` line.
func ParseV0ShallowLine(line string) (plumbing.Hash, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "shallow" {
		return plumbing.ZeroHash, errkind.Protocol.New("malformed shallow line: " + line)
	}
	return parseHash(fields[1])
}

// ApplyCapabilities applies a parsed capability token list (from the first
// V0 want line) onto the Builder.
func ApplyCapabilities(b *Builder, caps []string) {
	for _, c := range caps {
		switch {
		case c == "thin-pack":
			b.SetThinPack()
		case c == "no-progress":
			b.SetNoProgress()
		case c == "include-tag":
			b.SetIncludeTag()
		case c == "ofs-delta":
			b.SetOfsDelta()
		case c == "side-band-64k":
			b.SetSideBand(SideBand64k)
		case c == "side-band":
			b.SetSideBand(SideBandSmall)
		case c == "multi_ack_detailed":
			b.SetMultiAck(MultiAckDetailed)
		case c == "multi_ack":
			b.SetMultiAck(MultiAck)
		case strings.HasPrefix(c, "agent="):
			b.SetAgent(strings.TrimPrefix(c, "agent="))
		}
	}
}

// ApplyCapabilitiesToRequest applies the same capability vocabulary
// directly onto an already-built Request, for the V0 Session Driver,
// which parses the capability-bearing first want line separately from
// the rest of the request via ParseV2Fetch's shared token grammar.
func ApplyCapabilitiesToRequest(req *Request, caps []string) {
	for _, c := range caps {
		switch {
		case c == "thin-pack":
			req.Capabilities.ThinPack = true
		case c == "no-progress":
			req.Capabilities.NoProgress = true
		case c == "include-tag":
			req.Capabilities.IncludeTag = true
		case c == "ofs-delta":
			req.Capabilities.OfsDelta = true
		case c == "side-band-64k":
			req.Capabilities.SideBand = SideBand64k
		case c == "side-band":
			req.Capabilities.SideBand = SideBandSmall
		case c == "multi_ack_detailed":
			req.Capabilities.MultiAck = MultiAckDetailed
		case c == "multi_ack":
			req.Capabilities.MultiAck = MultiAck
		case strings.HasPrefix(c, "agent="):
			req.Capabilities.Agent = strings.TrimPrefix(c, "agent=")
		}
	}
}
