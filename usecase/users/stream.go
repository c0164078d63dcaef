package users

import (
	"context"

	"usersvc/api/transport"
	"usersvc/domain"
	"usersvc/repository"
)

// ResponseStream lazily maps a repository cursor onto response envelopes, one
// envelope per user, each with code 200. Streams are finite, created per call
// and never shared across requests. A data-access failure mid-stream yields a
// single 500 envelope and ends the stream.
type ResponseStream struct {
	inner  repository.UserStream
	refID  string
	failed *transport.Envelope
	done   bool
}

func newResponseStream(inner repository.UserStream, refID string) *ResponseStream {
	return &ResponseStream{inner: inner, refID: refID}
}

func newFailedStream(env transport.Envelope) *ResponseStream {
	return &ResponseStream{failed: &env}
}

// Next returns the next envelope, or ok=false once the stream is exhausted.
func (s *ResponseStream) Next(ctx context.Context) (transport.Envelope, bool) {
	if s.done {
		return transport.Envelope{}, false
	}
	if s.failed != nil {
		s.done = true
		return *s.failed, true
	}

	user, ok, err := s.inner.Next(ctx)
	if err != nil {
		s.done = true
		_ = s.inner.Close()
		return transport.New(nil, msgListFailed+domain.Detail(err), 500, s.refID), true
	}
	if !ok {
		s.done = true
		return transport.Envelope{}, false
	}
	return transport.New(user, msgSuccess, 200, s.refID), true
}

// Close releases the underlying cursor.
func (s *ResponseStream) Close() error {
	s.done = true
	if s.inner != nil {
		return s.inner.Close()
	}
	return nil
}
