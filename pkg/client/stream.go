package client

import (
	"context"
	"io"

	"github.com/flowmesh/a2a-go/pkg/a2a"
	"github.com/flowmesh/a2a-go/pkg/stream"
)

/*
Stream is a single-pass, asynchronous sequence of StreamResponse events
decoded from one SSE response. Next yields the next event or io.EOF when
the stream has ended. An error returned mid-stream (a malformed frame, a
connection failure) is terminal: the same error is returned on every
subsequent call.
*/
type Stream struct {
	reader *stream.Reader
	err    error
}

// Next returns the next decoded event, io.EOF at normal end of stream, or
// a terminal error if the stream failed. ctx is honored on a best-effort
// basis: since the underlying response body is already fully buffered,
// there is no blocking I/O left to cancel, but the signature matches
// every other suspension point in this protocol.
func (s *Stream) Next(ctx context.Context) (*a2a.StreamResponse, error) {
	if s.err != nil {
		return nil, s.err
	}

	select {
	case <-ctx.Done():
		s.err = ctx.Err()
		return nil, s.err
	default:
	}

	resp, err := s.reader.Next()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return nil, err
	}

	return resp, nil
}
