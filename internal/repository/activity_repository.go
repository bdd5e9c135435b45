package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/models"
)

const activityColumns = `id, contract, event, actor, entity_type, entity_id, description,
	block_number, tx_hash, timestamp`

// AppendActivity writes one audit record. Redelivered events re-derive the
// same id, so the conflict branch keeps the log free of duplicates.
func (s *session) AppendActivity(ctx context.Context, a *models.Activity) error {
	query := `INSERT INTO activities (id, contract, event, actor, entity_type, entity_id, description,
			block_number, tx_hash, timestamp)
		VALUES (:id, :contract, :event, :actor, :entity_type, :entity_id, :description,
			:block_number, :tx_hash, :timestamp)
		ON CONFLICT (id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, a); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *session) ListActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if f.Actor != "" {
		conditions = append(conditions, fmt.Sprintf("actor = $%d", len(args)+1))
		args = append(args, f.Actor)
	}
	if f.Contract != "" {
		conditions = append(conditions, fmt.Sprintf("contract = $%d", len(args)+1))
		args = append(args, f.Contract)
	}
	if f.EntityType != "" {
		conditions = append(conditions, fmt.Sprintf("entity_type = $%d", len(args)+1))
		args = append(args, f.EntityType)
	}
	if f.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)+1))
		args = append(args, f.EntityID)
	}
	where := strings.Join(conditions, " AND ")
	size, offset := pageBounds(f.Page, f.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM activities WHERE %s
		ORDER BY block_number DESC, timestamp DESC LIMIT %d OFFSET %d`,
		activityColumns, where, size, offset)
	var activities []models.Activity
	if err := sqlx.SelectContext(ctx, s.ext, &activities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM activities WHERE %s", where)
	if err := sqlx.GetContext(ctx, s.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}
	return activities, total, nil
}
