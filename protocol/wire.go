// Package protocol implements the Session Driver (§4.1): packet-line
// framing, V0/V2 dialect detection, and the state machines that dispatch
// parsed requests to the policy, negotiation, and planner packages and
// stream back the result.
package protocol

import (
	"bytes"
	"io"
	"strconv"

	"gopkg.in/src-d/go-git.v4/plumbing/format/pktline"

	"github.com/gitproto/uploadpack/errkind"
)

// delimPkt and responseEndPkt are the V2 intra-command and end-of-response
// markers (§4.1). pktline.Encoder only exposes Flush for the `0000`
// marker, so these two are written directly — they carry no payload, so
// there is nothing an encoder adds beyond the four literal bytes.
var (
	delimPkt       = []byte("0001")
	responseEndPkt = []byte("0002")
)

// Writer frames output lines as packet-lines, adding the V2 delimiter and
// response-end markers the standard encoder does not know about.
type Writer struct {
	w   io.Writer
	enc *pktline.Encoder
}

// NewWriter wraps w for packet-line framed output.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, enc: pktline.NewEncoder(w)}
}

// Line writes s as one packet-line payload.
func (w *Writer) Line(s string) error {
	return w.enc.Encode([]byte(s))
}

// Linef writes a formatted packet-line payload.
func (w *Writer) Linef(format string, args ...interface{}) error {
	return w.enc.Encodef(format, args...)
}

// Flush writes the `0000` section-end marker.
func (w *Writer) Flush() error {
	return w.enc.Flush()
}

// Delim writes the `0001` V2 intra-command delimiter.
func (w *Writer) Delim() error {
	_, err := w.w.Write(delimPkt)
	return err
}

// ResponseEnd writes the `0002` V2 response-end marker.
func (w *Writer) ResponseEnd() error {
	_, err := w.w.Write(responseEndPkt)
	return err
}

// Reader scans packet-line framed input, classifying each line as data,
// flush, delimiter, or response-end.
//
// It reads the four-byte hex length header itself rather than handing the
// stream to pktline.Scanner: the pinned go-git.v4 release predates
// protocol v2 and its Scanner only recognizes the `0000` flush length,
// treating the reserved lengths 1-3 (the `0001` delimiter and `0002`
// response-end markers V2 needs) as a scan error before a caller ever
// sees them. Reading the header directly, the same way Writer already
// writes these two markers without going through pktline.Encoder, avoids
// depending on library support for markers it does not have in this
// version.
type Reader struct {
	r io.Reader
}

// NewReader wraps r for packet-line framed input.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// LineKind classifies one scanned packet-line.
type LineKind int

const (
	// LineData is an ordinary payload line.
	LineData LineKind = iota
	// LineFlush is the `0000` marker.
	LineFlush
	// LineDelim is the `0001` marker.
	LineDelim
	// LineResponseEnd is the `0002` marker.
	LineResponseEnd
)

// Next scans the next packet-line, returning its kind and, for LineData,
// its payload with a trailing newline trimmed if present.
func (r *Reader) Next() (LineKind, string, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r.r, header); err != nil {
		if err == io.EOF {
			return LineData, "", io.EOF
		}
		return LineData, "", errkind.ClientDisconnect.New(err.Error())
	}

	length, err := strconv.ParseUint(string(header), 16, 16)
	if err != nil {
		return LineData, "", errkind.Protocol.New("invalid pkt-line length header " + string(header))
	}

	switch length {
	case 0:
		return LineFlush, "", nil
	case 1:
		return LineDelim, "", nil
	case 2:
		return LineResponseEnd, "", nil
	case 3:
		return LineData, "", errkind.Protocol.New("reserved pkt-line length 0003")
	}

	payloadLen := int(length) - 4
	if payloadLen > pktline.MaxPayloadSize {
		return LineData, "", errkind.Protocol.New("pkt-line payload exceeds maximum size")
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return LineData, "", errkind.ClientDisconnect.New(err.Error())
	}
	return LineData, string(bytes.TrimSuffix(payload, []byte("\n"))), nil
}

// ReadSection scans lines until a flush or delimiter, returning the
// accumulated data lines.
func (r *Reader) ReadSection() ([]string, LineKind, error) {
	var lines []string
	for {
		kind, line, err := r.Next()
		if err != nil {
			return lines, kind, err
		}
		switch kind {
		case LineFlush, LineDelim:
			return lines, kind, nil
		default:
			lines = append(lines, line)
		}
	}
}
