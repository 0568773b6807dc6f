package uploadpack

import (
	"io"

	"github.com/gitproto/uploadpack/protocol"
	"github.com/gitproto/uploadpack/store"
)

// Config is the session configuration (§6's "Exposed surface"). The
// transport adapter (SSH, HTTP, or the git:// anonymous protocol) has
// already extracted ProtocolVersion from whatever preamble carries it;
// this package only dispatches on its value, never parses a transport
// request line itself.
type Config = protocol.Config

// Hooks are the optional protocol observers (§6, §9).
type Hooks = protocol.Hooks

// Session carries the external collaborators one upload-pack exchange
// needs (§6's consumed contracts).
type Session struct {
	DB          store.ObjectDatabase
	Refs        store.ReferenceStore
	BitmapIndex store.BitmapIndex
	PackWriter  store.PackWriter

	// ProtocolVersion selects the dialect: "2" for V2, anything else
	// (including "" and "0") for V0 (§4.1's dialect detection).
	ProtocolVersion string

	Config Config
	Hooks  Hooks
}

// Upload runs one upload-pack session end to end: ref/capability
// advertisement, request parsing, policy validation, negotiation, shallow
// planning, filtering, and pack writing (§2's five components, in their
// dependency order). input and output are the framed protocol stream.
// progress is stored on the driver session, but nothing writes to it:
// progress text from the Pack Writer travels on side-band 2 of output.
func Upload(sess Session, input io.Reader, output io.Writer, progress io.Writer) error {
	driverSession := &protocol.Session{
		DB:          sess.DB,
		Refs:        sess.Refs,
		BitmapIndex: sess.BitmapIndex,
		PackWriter:  sess.PackWriter,
		Progress:    progress,
		Config:      sess.Config,
		Hooks:       sess.Hooks,
	}

	r := protocol.NewReader(input)
	w := protocol.NewWriter(output)

	if sess.ProtocolVersion == "2" {
		return protocol.RunV2(driverSession, r, w)
	}
	return protocol.RunV0(driverSession, r, w)
}
