package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/events"
)

// envelopeField is the stream entry field holding the JSON envelope.
const envelopeField = "envelope"

// StreamSource tails a Redis stream of decoded contract events. The relayer
// appends entries in block order; XREAD preserves that order and blocks when
// the stream is caught up.
type StreamSource struct {
	client    *redis.Client
	key       string
	lastID    string
	blockWait time.Duration
	logger    *zap.Logger
}

// NewStreamSource tails key starting after startID ("0" replays everything,
// "$" starts at the live tip).
func NewStreamSource(client *redis.Client, key, startID string, blockWait time.Duration, logger *zap.Logger) *StreamSource {
	if startID == "" {
		startID = "0"
	}
	if blockWait <= 0 {
		blockWait = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamSource{
		client:    client,
		key:       key,
		lastID:    startID,
		blockWait: blockWait,
		logger:    logger,
	}
}

func (s *StreamSource) Next(ctx context.Context) (*events.Envelope, error) {
	for {
		res, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.key, s.lastID},
			Count:   1,
			Block:   s.blockWait,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// Block timeout with no new entries; poll again.
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("xread %s: %w", s.key, err)
		}
		for _, stream := range res {
			for _, msg := range stream.Messages {
				s.lastID = msg.ID
				raw, ok := msg.Values[envelopeField].(string)
				if !ok {
					s.logger.Warn("stream entry missing envelope field, skipping",
						zap.String("stream", s.key), zap.String("entry", msg.ID))
					continue
				}
				env, err := events.DecodeEnvelope([]byte(raw))
				if err != nil {
					return nil, fmt.Errorf("entry %s: %w", msg.ID, err)
				}
				return env, nil
			}
		}
	}
}

// LastID reports the id of the last consumed entry, for checkpoint logging.
func (s *StreamSource) LastID() string {
	return s.lastID
}

func (s *StreamSource) Close() error {
	return nil
}
