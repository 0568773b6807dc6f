package request

import (
	"strconv"
	"strings"

	"github.com/gitproto/uploadpack/errkind"
)

// ParseFilter parses a `filter <spec>` argument into a Filter (§3, §4.5).
// Recognized forms: "blob:none", "blob:limit=<n>", "tree:<n>".
func ParseFilter(spec string) (Filter, error) {
	f := Filter{Spec: spec}

	switch {
	case spec == "blob:none":
		f.Kind = FilterBlobNone
		return f, nil

	case strings.HasPrefix(spec, "blob:limit="):
		n, err := strconv.ParseInt(strings.TrimPrefix(spec, "blob:limit="), 10, 64)
		if err != nil || n < 0 {
			return Filter{}, errkind.Protocol.New("malformed filter spec: " + spec)
		}
		f.Kind = FilterBlobLimit
		f.Limit = n
		return f, nil

	case strings.HasPrefix(spec, "tree:"):
		n, err := strconv.Atoi(strings.TrimPrefix(spec, "tree:"))
		if err != nil || n < 0 {
			return Filter{}, errkind.Protocol.New("malformed filter spec: " + spec)
		}
		f.Kind = FilterTreeDepth
		f.Depth = n
		return f, nil

	default:
		return Filter{}, errkind.Protocol.New("unsupported filter spec: " + spec)
	}
}
