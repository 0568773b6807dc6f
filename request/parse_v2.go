package request

import (
	"strconv"
	"strings"
	"time"

	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/errkind"
)

// FetchOptions configures how ParseV2Fetch interprets a V2 `fetch`
// argument block (§4.2).
type FetchOptions struct {
	// Resolver resolves want-ref names against the advertised refs.
	Resolver RefResolver
	// AllowRefInWant gates the want-ref token (uploadpack.allowrefinwant).
	AllowRefInWant bool
	// AllowFilter gates the filter token (uploadpack.allowfilter).
	AllowFilter bool
}

// ParseV2Fetch parses the argument lines of a V2 `fetch` command (§4.2's
// token table) into a Request. lines are already de-framed text lines
// (no packet-line length prefix, no trailing LF) up to but not including
// the terminating flush.
func ParseV2Fetch(lines []string, opts FetchOptions) (*Request, error) {
	b := NewBuilder()

	for _, line := range lines {
		token, value, hasValue := cutToken(line)

		switch token {
		case "want":
			oid, err := parseHash(value)
			if err != nil {
				return nil, err
			}
			b.AddWant(oid)

		case "want-ref":
			if !opts.AllowRefInWant {
				return nil, errkind.Protocol.New("want-ref not allowed")
			}
			if err := b.AddWantRef(value, opts.Resolver); err != nil {
				return nil, err
			}

		case "have":
			oid, err := parseHash(value)
			if err != nil {
				return nil, err
			}
			b.AddHave(oid)

		case "shallow":
			oid, err := parseHash(value)
			if err != nil {
				return nil, err
			}
			b.AddShallow(oid)

		case "deepen":
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, errkind.Protocol.New("malformed deepen: " + value)
			}
			if err := b.SetDeepenDepth(n); err != nil {
				return nil, err
			}

		case "deepen-since":
			sec, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, errkind.Protocol.New("malformed deepen-since: " + value)
			}
			if err := b.SetDeepenSince(time.Unix(sec, 0).UTC()); err != nil {
				return nil, err
			}

		case "deepen-not":
			if err := b.AddDeepenNot(value); err != nil {
				return nil, err
			}

		case "filter":
			if err := b.SetFilter(value, opts.AllowFilter); err != nil {
				return nil, err
			}

		case "thin-pack":
			b.SetThinPack()
		case "no-progress":
			b.SetNoProgress()
		case "include-tag":
			b.SetIncludeTag()
		case "ofs-delta":
			b.SetOfsDelta()

		case "done":
			b.SetDone()

		case "server-option":
			if !hasValue {
				return nil, errkind.Protocol.New("server-option requires a value")
			}
			b.AddServerOption(value)

		case "agent":
			b.SetAgent(value)

		default:
			return nil, errkind.Protocol.New("unrecognized argument: " + line)
		}
	}

	req := b.Build()
	if req.Done && len(req.Wants) == 0 && len(req.WantedRefs) == 0 {
		return nil, errkind.Protocol.New("fetch: done without any want")
	}
	return req, nil
}

// cutToken splits a V2 argument line into its leading token and its
// value. "want <oid>" splits on the first space; "agent=<s>" and
// "server-option=<s>" split on "=" instead, per §4.2's table.
func cutToken(line string) (token, value string, hasValue bool) {
	if i := strings.IndexByte(line, '='); i >= 0 {
		before := line[:i]
		if before == "agent" || before == "server-option" {
			return before, line[i+1:], true
		}
	}
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], line[i+1:], true
	}
	return line, "", false
}

func parseHash(s string) (plumbing.Hash, error) {
	if len(s) != 40 {
		return plumbing.ZeroHash, errkind.Protocol.New("malformed object id: " + s)
	}
	h := plumbing.NewHash(s)
	if h.IsZero() && s != strings.Repeat("0", 40) {
		return plumbing.ZeroHash, errkind.Protocol.New("malformed object id: " + s)
	}
	return h, nil
}
