package mapping

import (
	"context"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

// bumpPlatform applies a domain-specific mutation to the singleton platform
// stats row inside the current transaction.
func (e *Engine) bumpPlatform(ctx context.Context, s store.Store, env *events.Envelope, mutate func(*models.PlatformStats)) error {
	stats, err := store.EnsurePlatformStats(ctx, s, anchor(env))
	if err != nil {
		return err
	}
	mutate(stats)
	stats.UpdatedAt = env.Time()
	return s.SavePlatformStats(ctx, stats)
}

// bumpStats records the bookkeeping every processed event gets exactly once:
// the platform transaction total and the originating contract's interaction
// count.
func (e *Engine) bumpStats(ctx context.Context, s store.Store, env *events.Envelope) error {
	if err := e.bumpPlatform(ctx, s, env, func(st *models.PlatformStats) {
		st.TotalTransactions++
	}); err != nil {
		return err
	}

	cs, err := store.EnsureContractStats(ctx, s, string(env.Contract), anchor(env))
	if err != nil {
		return err
	}
	cs.EventsProcessed++
	if env.BlockNumber > cs.LastBlock {
		cs.LastBlock = env.BlockNumber
	}
	cs.UpdatedAt = env.Time()
	return s.SaveContractStats(ctx, cs)
}
