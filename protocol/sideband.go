package protocol

import (
	"io"

	"gopkg.in/src-d/go-git.v4/plumbing/format/pktline"

	"github.com/gitproto/uploadpack/request"
)

// Side-band channel numbers (§4.1): 1 carries pack data, 2 carries
// progress text, 3 carries a fatal error that aborts the stream.
const (
	bandPack     byte = 1
	bandProgress byte = 2
	bandFatal    byte = 3
)

// maxBandPayload leaves one byte of each pktline payload for the band
// number, out of pktline's own payload cap.
const maxBandPayload = pktline.MaxPayloadSize - 1

// sidebandWriter frames a byte stream on a single side-band channel,
// splitting it into pktline-sized chunks with the channel prefixed.
type sidebandWriter struct {
	enc  *pktline.Encoder
	band byte
}

func newSidebandWriter(enc *pktline.Encoder, band byte) *sidebandWriter {
	return &sidebandWriter{enc: enc, band: band}
}

// Write honors io.Writer, chunking p across as many pktlines as needed.
func (s *sidebandWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := len(p)
		if n > maxBandPayload {
			n = maxBandPayload
		}
		chunk := append([]byte{s.band}, p[:n]...)
		if err := s.enc.Encode(chunk); err != nil {
			return total, err
		}
		total += n
		p = p[n:]
	}
	return total, nil
}

// Fatal writes msg on band 3, which aborts the client's read of the
// stream (§7: "During the pack phase, errors travel on side-band 3").
func (s *sidebandWriter) Fatal(msg string) error {
	_, err := (&sidebandWriter{enc: s.enc, band: bandFatal}).Write([]byte(msg))
	return err
}

// packSink selects where pack bytes and progress text go: raw onto w, or
// side-band framed onto w when the negotiated mode calls for it. noProgress
// suppresses the progress sink even when side-band is negotiated (§4.6).
func packSink(w *Writer, mode request.SideBandMode, noProgress bool) (sink io.Writer, progress io.Writer, fatal func(string) error) {
	if mode == request.SideBandNone {
		return w.w, nil, func(msg string) error { return w.Linef("ERR %s\n", msg) }
	}
	pack := newSidebandWriter(w.enc, bandPack)
	fatal = pack.Fatal
	if noProgress {
		return pack, nil, fatal
	}
	return pack, newSidebandWriter(w.enc, bandProgress), fatal
}
