package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/learnledger/indexer/internal/events"
)

// FileSource reads a JSONL dump of event envelopes, one per line. It backs
// replays and local development without a broker.
type FileSource struct {
	f       *os.File
	scanner *bufio.Scanner
	line    int
}

// NewFileSource opens path for reading.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event dump: %w", err)
	}
	scanner := bufio.NewScanner(f)
	// Envelopes with long descriptions can exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &FileSource{f: f, scanner: scanner}, nil
}

func (s *FileSource) Next(ctx context.Context) (*events.Envelope, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read event dump: %w", err)
			}
			return nil, ErrEndOfStream
		}
		s.line++
		raw := bytes.TrimSpace(s.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		env, err := events.DecodeEnvelope(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		return env, nil
	}
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
