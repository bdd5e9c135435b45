// Package service exposes the materialized entity graph to API consumers.
// Services only ever read the store; every write flows through the mapping
// engine.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// CourseDetail is a course together with its ordered live sections.
type CourseDetail struct {
	models.Course
	Sections []models.CourseSection `json:"sections"`
}

// CourseService serves catalog queries.
type CourseService struct {
	store  store.Store
	logger *zap.Logger
}

// NewCourseService creates a course service.
func NewCourseService(s store.Store, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{store: s, logger: logger}
}

// List returns paginated courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one course with its sections in catalog order.
func (s *CourseService) Get(ctx context.Context, id string) (*CourseDetail, error) {
	course, err := s.store.Course(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course == nil || course.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	sections, err := s.store.SectionsByCourse(ctx, id, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	return &CourseDetail{Course: *course, Sections: sections}, nil
}

// Sections returns a course's live sections in catalog order.
func (s *CourseService) Sections(ctx context.Context, courseID string) ([]models.CourseSection, error) {
	course, err := s.store.Course(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course == nil || course.IsDeleted {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	sections, err := s.store.SectionsByCourse(ctx, courseID, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	return sections, nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
