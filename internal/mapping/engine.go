// Package mapping turns the ordered contract event streams into the
// materialized entity graph. Handlers are deterministic and idempotent under
// replay: reapplying any event never double-counts an aggregate, and writes
// whose causal dependency has not arrived yet are skipped with a warning
// rather than aborting the stream.
package mapping

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/config"
)

// Observer receives mapping-level metrics. All methods must be cheap; they are
// called on the hot path.
type Observer interface {
	EventProcessed(contract, name string, seconds float64)
	EventSkipped(contract, name, reason string)
	DependencyFallback(call string)
}

type noopObserver struct{}

func (noopObserver) EventProcessed(string, string, float64) {}
func (noopObserver) EventSkipped(string, string, string)    {}
func (noopObserver) DependencyFallback(string)              {}

// Engine dispatches events to the four handler groups. It holds no mutable
// state of its own; everything flows through the Store it is handed per event.
type Engine struct {
	reader      chain.Reader
	fees        config.FeesConfig
	strictEnums bool
	logger      *zap.Logger
	obs         Observer
}

// NewEngine builds the mapping engine. strictEnums should be true outside
// production so schema drift fails fast instead of landing in Other buckets.
func NewEngine(reader chain.Reader, fees config.FeesConfig, strictEnums bool, logger *zap.Logger, obs Observer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if obs == nil {
		obs = noopObserver{}
	}
	return &Engine{
		reader:      reader,
		fees:        fees,
		strictEnums: strictEnums,
		logger:      logger,
		obs:         obs,
	}
}

// Apply processes one event to completion against s. The caller guarantees
// exclusive, synchronous access to s for the duration of the call and commits
// the resulting writes atomically.
func (e *Engine) Apply(ctx context.Context, s store.Store, env *events.Envelope) error {
	start := time.Now()

	var err error
	switch env.Contract {
	case events.ContractCatalog:
		err = e.applyCatalog(ctx, s, env)
	case events.ContractLicense:
		err = e.applyLicense(ctx, s, env)
	case events.ContractProgress:
		err = e.applyProgress(ctx, s, env)
	case events.ContractCertificate:
		err = e.applyCertificate(ctx, s, env)
	default:
		e.logger.Warn("unknown contract stream, skipping event",
			zap.String("contract", string(env.Contract)),
			zap.String("event", env.Name),
			zap.String("tx", env.TxHash))
		e.obs.EventSkipped(string(env.Contract), env.Name, "unknown_contract")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply %s/%s at %s: %w", env.Contract, env.Name, env.EventID(), err)
	}

	if err := e.bumpStats(ctx, s, env); err != nil {
		return fmt.Errorf("bump stats for %s: %w", env.EventID(), err)
	}

	e.obs.EventProcessed(string(env.Contract), env.Name, time.Since(start).Seconds())
	return nil
}

// anchor derives the creation anchor for entities born from this event.
func anchor(env *events.Envelope) store.Anchor {
	return store.Anchor{At: env.Time(), TxHash: env.TxHash}
}

// skipUnknown logs and counts an event name the engine has no handler for.
// Unknown names are skipped, not fatal: an isolated decoding gap must not
// stall all downstream indexing.
func (e *Engine) skipUnknown(env *events.Envelope) error {
	e.logger.Warn("unknown event name, skipping",
		zap.String("contract", string(env.Contract)),
		zap.String("event", env.Name),
		zap.String("tx", env.TxHash))
	e.obs.EventSkipped(string(env.Contract), env.Name, "unknown_event")
	return nil
}

// skipMissing logs and counts a write skipped because its causal dependency
// has not been indexed yet. A later replay repairs it once the dependency
// exists.
func (e *Engine) skipMissing(env *events.Envelope, entity, id string) {
	e.logger.Warn("missing causal dependency, skipping write",
		zap.String("contract", string(env.Contract)),
		zap.String("event", env.Name),
		zap.String("entity", entity),
		zap.String("entity_id", id),
		zap.String("tx", env.TxHash),
		zap.Uint64("block", env.BlockNumber))
	e.obs.EventSkipped(string(env.Contract), env.Name, "missing_dependency")
}

// ensureProfile loads or creates a profile, counting first-time creations
// into the platform user total.
func (e *Engine) ensureProfile(ctx context.Context, s store.Store, id string, env *events.Envelope) (*models.UserProfile, error) {
	p, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	p = store.NewProfile(id, anchor(env))
	stats, err := store.EnsurePlatformStats(ctx, s, anchor(env))
	if err != nil {
		return nil, err
	}
	stats.TotalUsers++
	stats.UpdatedAt = env.Time()
	if err := s.SavePlatformStats(ctx, stats); err != nil {
		return nil, err
	}
	return p, nil
}

// guarded returns true when the event was already applied; otherwise it
// records nothing and leaves marking to markProcessed. Financially significant
// handlers call this first so at-least-once redelivery cannot double-count.
func (e *Engine) guarded(ctx context.Context, s store.Store, env *events.Envelope) (bool, error) {
	done, err := s.IsProcessed(ctx, env.EventID())
	if err != nil {
		return false, err
	}
	if done {
		e.logger.Debug("event already processed, skipping replay",
			zap.String("event", env.Name), zap.String("id", env.EventID()))
		e.obs.EventSkipped(string(env.Contract), env.Name, "replayed")
	}
	return done, nil
}

func (e *Engine) markProcessed(ctx context.Context, s store.Store, env *events.Envelope) error {
	return s.MarkProcessed(ctx, &models.ProcessedEvent{
		ID:          env.EventID(),
		Event:       env.Name,
		ProcessedAt: env.Time(),
	})
}
