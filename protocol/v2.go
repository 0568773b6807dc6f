package protocol

import (
	"io"
	"strings"

	"github.com/gitproto/uploadpack/errkind"
)

// v2BaseFeatures lists the capability advertisement's fetch feature set
// (§6: "fetch=<space-separated features>"). ref-in-want is appended only
// when the server configuration enables it (§6's advertiserefinwant).
const v2BaseFeatures = "shallow filter"

// RunV2 drives the stateless-command state machine (§4.1): one
// capability advertisement, then zero or more ls-refs/fetch commands
// until the input ends, a bare flush arrives, or a fetch has sent its
// packfile.
func RunV2(sess *Session, r *Reader, w *Writer) error {
	snap, oracle, err := sess.Prepare()
	if err != nil {
		return err
	}
	engine := sess.Engine(snap, oracle)

	if sess.Hooks.OnCapabilities != nil {
		sess.Hooks.OnCapabilities()
	}
	if err := advertiseCapabilitiesV2(sess, w); err != nil {
		return err
	}

	for {
		header, kind, err := r.ReadSection()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if len(header) == 0 {
			// A bare flush with no command ends the session cleanly
			// (§8 S1: "empty input with flush").
			return nil
		}

		cmd, ok := parseCommandLine(header[0])
		if !ok {
			return writeV2Error(w, errkind.Protocol.New("missing command= line"))
		}

		var args []string
		if kind == LineDelim {
			args, _, err = r.ReadSection()
			if err != nil {
				return err
			}
		}

		switch cmd {
		case "ls-refs":
			if err := handleLsRefs(sess, snap, args, w); err != nil {
				return writeV2Error(w, err)
			}
		case "fetch":
			done, err := handleFetch(sess, snap, engine, args, w)
			if err != nil {
				return writeV2Error(w, err)
			}
			if done {
				return nil
			}
		default:
			return writeV2Error(w, errkind.Protocol.New("unrecognized command: "+cmd))
		}
	}
}

func parseCommandLine(line string) (string, bool) {
	if !strings.HasPrefix(line, "command=") {
		return "", false
	}
	return strings.TrimPrefix(line, "command="), true
}

func advertiseCapabilitiesV2(sess *Session, w *Writer) error {
	if err := w.Line("version 2"); err != nil {
		return err
	}
	if err := w.Line("ls-refs"); err != nil {
		return err
	}
	features := v2BaseFeatures
	if sess.Config.AllowRefInWant && sess.Config.AdvertiseRefInWant {
		features += " ref-in-want"
	}
	if err := w.Line("fetch=" + features); err != nil {
		return err
	}
	if err := w.Line("server-option"); err != nil {
		return err
	}
	return w.Flush()
}

// handleLsRefs answers an `ls-refs` command: filtered refs honoring
// `ref-prefix <p>` arguments (§4.1). Every other argument, `symrefs` and
// `peel` included, is ignored: no symbolic-target or peeled-oid suffixes
// are written.
func handleLsRefs(sess *Session, snap *RefSnapshot, args []string, w *Writer) error {
	var prefixes []string
	for _, a := range args {
		if strings.HasPrefix(a, "ref-prefix ") {
			prefixes = append(prefixes, strings.TrimPrefix(a, "ref-prefix "))
		}
	}

	for _, ref := range snap.Advertised {
		name := ref.Name().String()
		if len(prefixes) > 0 && !hasAnyPrefix(name, prefixes) {
			continue
		}
		if err := w.Linef("%s %s\n", ref.Hash().String(), name); err != nil {
			return err
		}
	}
	if sess.Hooks.OnLsRefs != nil {
		sess.Hooks.OnLsRefs(snap.Advertised)
	}
	return w.Flush()
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// writeV2Error writes a pre-pack `ERR <text>` line (§7) and returns the
// original error so the caller can log and count it.
func writeV2Error(w *Writer, err error) error {
	_ = w.Linef("ERR %s\n", err.Error())
	return err
}
