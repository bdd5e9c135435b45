package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// ActivityService serves the append-only audit trail.
type ActivityService struct {
	store  store.Store
	logger *zap.Logger
}

// NewActivityService creates an activity service.
func NewActivityService(s store.Store, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{store: s, logger: logger}
}

// List returns paginated activities, newest first.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	activities, total, err := s.store.ListActivities(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, paginationFor(filter.Page, filter.PageSize, total), nil
}
