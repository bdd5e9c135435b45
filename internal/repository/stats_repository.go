package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/models"
)

func (s *session) PlatformStats(ctx context.Context) (*models.PlatformStats, error) {
	var st models.PlatformStats
	found, err := s.getOne(ctx, &st,
		`SELECT id, total_transactions, total_courses, total_enrollments, total_certificates,
			total_users, total_revenue, total_platform_fees, updated_at
		 FROM platform_stats WHERE id = $1`, models.PlatformStatsID)
	if err != nil {
		return nil, fmt.Errorf("get platform stats: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &st, nil
}

func (s *session) SavePlatformStats(ctx context.Context, st *models.PlatformStats) error {
	query := `INSERT INTO platform_stats (id, total_transactions, total_courses, total_enrollments,
			total_certificates, total_users, total_revenue, total_platform_fees, updated_at)
		VALUES (:id, :total_transactions, :total_courses, :total_enrollments,
			:total_certificates, :total_users, :total_revenue, :total_platform_fees, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			total_transactions = EXCLUDED.total_transactions,
			total_courses = EXCLUDED.total_courses,
			total_enrollments = EXCLUDED.total_enrollments,
			total_certificates = EXCLUDED.total_certificates,
			total_users = EXCLUDED.total_users,
			total_revenue = EXCLUDED.total_revenue,
			total_platform_fees = EXCLUDED.total_platform_fees,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, st); err != nil {
		return fmt.Errorf("save platform stats: %w", err)
	}
	return nil
}

func (s *session) ContractStats(ctx context.Context, id string) (*models.ContractStats, error) {
	var st models.ContractStats
	found, err := s.getOne(ctx, &st,
		"SELECT id, events_processed, last_block, updated_at FROM contract_stats WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get contract stats: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &st, nil
}

func (s *session) SaveContractStats(ctx context.Context, st *models.ContractStats) error {
	query := `INSERT INTO contract_stats (id, events_processed, last_block, updated_at)
		VALUES (:id, :events_processed, :last_block, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			events_processed = EXCLUDED.events_processed,
			last_block = EXCLUDED.last_block,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, st); err != nil {
		return fmt.Errorf("save contract stats: %w", err)
	}
	return nil
}

func (s *session) Cursor(ctx context.Context) (*models.Cursor, error) {
	var c models.Cursor
	found, err := s.getOne(ctx, &c,
		`SELECT id, block_number, tx_index, log_index, stream_id, updated_at
		 FROM ingest_cursor WHERE id = $1`, models.CursorID)
	if err != nil {
		return nil, fmt.Errorf("get cursor: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *session) SaveCursor(ctx context.Context, c *models.Cursor) error {
	query := `INSERT INTO ingest_cursor (id, block_number, tx_index, log_index, stream_id, updated_at)
		VALUES (:id, :block_number, :tx_index, :log_index, :stream_id, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			tx_index = EXCLUDED.tx_index,
			log_index = EXCLUDED.log_index,
			stream_id = EXCLUDED.stream_id,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, c); err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

func (s *session) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var one int
	err := sqlx.GetContext(ctx, s.ext, &one,
		"SELECT 1 FROM processed_events WHERE id = $1 LIMIT 1", eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check processed: %w", err)
	}
	return true, nil
}

func (s *session) MarkProcessed(ctx context.Context, m *models.ProcessedEvent) error {
	query := `INSERT INTO processed_events (id, event, processed_at)
		VALUES (:id, :event, :processed_at)
		ON CONFLICT (id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, m); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}
