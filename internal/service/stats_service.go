package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// StatsOverview bundles the dataset-wide aggregates with the ingest position,
// so a consumer can judge both the numbers and their freshness in one call.
type StatsOverview struct {
	Platform  models.PlatformStats   `json:"platform"`
	Contracts []models.ContractStats `json:"contracts"`
	Cursor    *models.Cursor         `json:"cursor,omitempty"`
}

// StatsService serves platform and per-contract aggregates.
type StatsService struct {
	store  store.Store
	logger *zap.Logger
}

// NewStatsService creates a stats service.
func NewStatsService(s store.Store, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{store: s, logger: logger}
}

// Overview returns the platform aggregates, per-contract counters and the
// current ingest cursor. Before the first event everything is zero-valued.
func (s *StatsService) Overview(ctx context.Context) (*StatsOverview, error) {
	platform, err := s.store.PlatformStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load platform stats")
	}
	if platform == nil {
		platform = &models.PlatformStats{ID: models.PlatformStatsID}
	}

	overview := &StatsOverview{Platform: *platform}
	for _, contract := range []events.Contract{
		events.ContractCatalog, events.ContractLicense,
		events.ContractProgress, events.ContractCertificate,
	} {
		cs, err := s.store.ContractStats(ctx, string(contract))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract stats")
		}
		if cs == nil {
			cs = &models.ContractStats{ID: string(contract)}
		}
		overview.Contracts = append(overview.Contracts, *cs)
	}

	cursor, err := s.store.Cursor(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cursor")
	}
	overview.Cursor = cursor
	return overview, nil
}
