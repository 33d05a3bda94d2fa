// Package stream implements the Server-Sent Events framing shared between
// the server's response writer and the client's stream decoder: both sides
// agree on one frame per StreamResponse, of the default "message" event
// type (no "event:" line is written), carrying the JSON as its data line.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/flowmesh/a2a-go/pkg/a2a"
)

// WriteEvent frames resp as a single SSE message and writes it to w;
// flushing is left to the caller. No
// named event type is emitted beyond the default; the StreamResponse's own
// "kind" field discriminates the variant.
func WriteEvent(w io.Writer, resp a2a.StreamResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("stream: encode event: %w", err)
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
		return fmt.Errorf("stream: write event: %w", err)
	}
	return nil
}

// WriteComment writes an SSE comment line, used as a keep-alive that
// clients MUST tolerate without treating it as an event.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n", text)
	return err
}

/*
Reader consumes an SSE body as a sequence of frames and decodes each
completed frame's data into a StreamResponse. It joins multiple data
lines within one frame with "\n", ignores comment lines, and skips
frames whose assembled data is empty.
*/
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r as a Reader over its SSE-framed body.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next reads and decodes the next non-empty frame. It returns io.EOF when
// the underlying stream ends without a further frame.
func (rd *Reader) Next() (*a2a.StreamResponse, error) {
	for {
		data, err := rd.nextFrameData()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}

		var resp a2a.StreamResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("stream: decode frame: %w", err)
		}
		return &resp, nil
	}
}

// nextFrameData assembles the "data:" lines of the next frame, joining
// multiple data lines with "\n" per the SSE spec. A blank line terminates
// the frame; comment lines (": ...") are skipped entirely.
func (rd *Reader) nextFrameData() ([]byte, error) {
	var data strings.Builder
	sawData := false

	for {
		line, err := rd.br.ReadString('\n')
		if err != nil {
			if err == io.EOF && (sawData || line != "") {
				if sawData {
					return []byte(data.String()), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = strings.TrimRight(line, "\n\r")

		if line == "" {
			if sawData {
				return []byte(data.String()), nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, ":"):
			continue
		case strings.HasPrefix(line, "data:"):
			if sawData {
				data.WriteString("\n")
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			sawData = true
		default:
			// id:/event: and any other field are irrelevant to this
			// protocol's single implicit event type; ignore.
		}
	}
}
