package protocol

import (
	"gopkg.in/src-d/go-git.v4/plumbing"

	"github.com/gitproto/uploadpack/policy"
	"github.com/gitproto/uploadpack/request"
	"github.com/gitproto/uploadpack/store"
)

// Config carries the §6 configuration keys the Session Driver needs for
// one session: the selected request policy, the filter/ref-in-want
// feature gates, and the Ref Filter hook.
type Config struct {
	Policy             policy.RequestPolicy
	AllowFilter        bool
	AllowRefInWant     bool
	AdvertiseRefInWant bool
	RefFilter          store.RefFilter
}

// Hooks are the optional protocol observers (§6, §9). OnFetch receives
// the parsed request by pointer; the driver does not copy or guard it, and
// keeps using the same request after the hook returns.
type Hooks struct {
	OnCapabilities func()
	OnLsRefs       func(refs []*plumbing.Reference)
	OnFetch        func(req *request.Request)
}
