// Package ingest pulls decoded contract events from a source and drives them
// through the mapping engine, one transaction per event.
package ingest

import (
	"context"
	"errors"

	"github.com/learnledger/indexer/internal/events"
)

// ErrEndOfStream signals that a finite source has been drained. Live sources
// never return it; they block until the next event or context cancellation.
var ErrEndOfStream = errors.New("ingest: end of stream")

// Source yields decoded event envelopes in stream order.
type Source interface {
	// Next blocks until an event is available, the source is drained
	// (ErrEndOfStream), or ctx is cancelled.
	Next(ctx context.Context) (*events.Envelope, error)
	Close() error
}

// sliceSource replays a fixed set of envelopes; used by replay tooling and
// tests.
type sliceSource struct {
	envs []*events.Envelope
	pos  int
}

// NewSliceSource wraps an in-memory batch of envelopes as a finite Source.
func NewSliceSource(envs []*events.Envelope) Source {
	return &sliceSource{envs: envs}
}

func (s *sliceSource) Next(ctx context.Context) (*events.Envelope, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.envs) {
		return nil, ErrEndOfStream
	}
	env := s.envs[s.pos]
	s.pos++
	return env, nil
}

func (s *sliceSource) Close() error { return nil }
