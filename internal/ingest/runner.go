package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/mapping"
	"github.com/learnledger/indexer/internal/store"
)

// Runner drains a Source through the mapping engine. Each event runs in its
// own backend transaction together with the cursor advance, so a crash
// between events never leaves a half-applied write, and a crash after commit
// only causes a redelivery the handlers are built to absorb.
type Runner struct {
	backend store.Backend
	engine  *mapping.Engine
	src     Source
	logger  *zap.Logger

	processed int64
}

// NewRunner wires a runner.
func NewRunner(backend store.Backend, engine *mapping.Engine, src Source, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{backend: backend, engine: engine, src: src, logger: logger}
}

type lastIDer interface {
	LastID() string
}

// Run consumes the source until it is drained or ctx is cancelled. A handler
// error stops the run with the failing event still uncommitted; restarting
// resumes from the same event.
func (r *Runner) Run(ctx context.Context) error {
	for {
		env, err := r.src.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrEndOfStream) {
				r.logger.Info("source drained", zap.Int64("events", r.processed))
				return nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				r.logger.Info("ingest stopped", zap.Int64("events", r.processed))
				return nil
			}
			return fmt.Errorf("next event: %w", err)
		}

		if err := r.apply(ctx, env); err != nil {
			r.logger.Error("event failed",
				zap.String("contract", string(env.Contract)),
				zap.String("event", env.Name),
				zap.String("id", env.EventID()),
				zap.Error(err))
			return err
		}
		r.processed++
	}
}

// apply dispatches one event and advances the cursor in the same transaction.
// Events at or before the cursor are still dispatched: redeliveries must flow
// through the handlers so previously skipped cross-stream writes get another
// chance, and the idempotence guards keep the aggregates exact.
func (r *Runner) apply(ctx context.Context, env *events.Envelope) error {
	return r.backend.InTx(ctx, func(s store.Store) error {
		if err := r.engine.Apply(ctx, s, env); err != nil {
			return err
		}

		cursor, err := store.EnsureCursor(ctx, s)
		if err != nil {
			return err
		}
		pos := env.Position()
		if pos.After(events.Position{Block: cursor.BlockNumber, Tx: cursor.TxIndex, Log: cursor.LogIndex}) {
			cursor.BlockNumber = pos.Block
			cursor.TxIndex = pos.Tx
			cursor.LogIndex = pos.Log
			if ider, ok := r.src.(lastIDer); ok {
				cursor.StreamID = ider.LastID()
			}
			cursor.UpdatedAt = env.Time()
			if err := s.SaveCursor(ctx, cursor); err != nil {
				return err
			}
		}
		return nil
	})
}

// Processed reports how many events committed since the runner started.
func (r *Runner) Processed() int64 {
	return r.processed
}
