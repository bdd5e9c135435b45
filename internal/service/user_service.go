package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// UserService serves profile queries keyed by account address.
type UserService struct {
	store  store.Store
	logger *zap.Logger
}

// NewUserService creates a user service.
func NewUserService(s store.Store, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{store: s, logger: logger}
}

// Get returns the profile for an address. Addresses are case-insensitive.
func (s *UserService) Get(ctx context.Context, address string) (*models.UserProfile, error) {
	profile, err := s.store.Profile(ctx, events.NormalizeAddress(address))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
	}
	return profile, nil
}

// Enrollments returns the address's enrollments.
func (s *UserService) Enrollments(ctx context.Context, address string, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	filter.Student = events.NormalizeAddress(address)
	enrollments, total, err := s.store.ListEnrollments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// CreatedCourses returns the courses the address has published.
func (s *UserService) CreatedCourses(ctx context.Context, address string, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	filter.Creator = events.NormalizeAddress(address)
	courses, total, err := s.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Activity returns the audit trail entries where the address is the actor.
func (s *UserService) Activity(ctx context.Context, address string, filter models.ActivityFilter) ([]models.Activity, *models.Pagination, error) {
	filter.Actor = events.NormalizeAddress(address)
	activities, total, err := s.store.ListActivities(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	return activities, paginationFor(filter.Page, filter.PageSize, total), nil
}
