package mapping

import (
	"context"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

// recordActivity appends the single audit record every business event leaves
// behind. Activities are write-only from the mapping layer's point of view;
// no handler ever reads one back.
func (e *Engine) recordActivity(ctx context.Context, s store.Store, env *events.Envelope, actor, entityType, entityID, description string) error {
	return s.AppendActivity(ctx, &models.Activity{
		ID:          env.EventID(),
		Contract:    string(env.Contract),
		Event:       env.Name,
		Actor:       actor,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: description,
		BlockNumber: env.BlockNumber,
		TxHash:      env.TxHash,
		Timestamp:   env.Time(),
	})
}

// shortAddr renders an address as 0x1234…abcd for activity descriptions.
func shortAddr(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
