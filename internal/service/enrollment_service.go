package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// EnrollmentService serves license/enrollment queries.
type EnrollmentService struct {
	store  store.Store
	logger *zap.Logger
}

// NewEnrollmentService creates an enrollment service.
func NewEnrollmentService(s store.Store, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{store: s, logger: logger}
}

// List returns paginated enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.store.ListEnrollments(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Lookup resolves the enrollment for a (student, course) pair through the
// same index the progress handlers use.
func (s *EnrollmentService) Lookup(ctx context.Context, student, courseID string) (*models.Enrollment, error) {
	if student == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and courseId are required")
	}
	key := store.StudentCourseKey(events.NormalizeAddress(student), courseID)
	lookup, err := s.store.StudentCourseEnrollment(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve enrollment")
	}
	if lookup == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no enrollment for this student and course")
	}
	return s.Get(ctx, lookup.EnrollmentID)
}

// Get returns one enrollment by license token id.
func (s *EnrollmentService) Get(ctx context.Context, tokenID string) (*models.Enrollment, error) {
	enrollment, err := s.store.Enrollment(ctx, tokenID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return enrollment, nil
}
