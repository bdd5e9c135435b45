package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
	appErrors "github.com/learnledger/indexer/pkg/errors"
)

// CertificateDetail is a certificate together with its course history.
type CertificateDetail struct {
	models.Certificate
	Courses []models.CertificateCourse `json:"courses"`
}

// CertificateService serves certificate queries.
type CertificateService struct {
	store  store.Store
	logger *zap.Logger
}

// NewCertificateService creates a certificate service.
func NewCertificateService(s store.Store, logger *zap.Logger) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{store: s, logger: logger}
}

// Get returns one certificate with its full course history.
func (s *CertificateService) Get(ctx context.Context, id string) (*CertificateDetail, error) {
	cert, err := s.store.Certificate(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	return s.detail(ctx, cert)
}

// ByOwner returns the address's certificate, if one was minted.
func (s *CertificateService) ByOwner(ctx context.Context, owner string) (*CertificateDetail, error) {
	cert, err := s.store.CertificateByOwner(ctx, events.NormalizeAddress(owner))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no certificate for this address")
	}
	return s.detail(ctx, cert)
}

// Courses returns only the course history rows for a certificate.
func (s *CertificateService) Courses(ctx context.Context, id string) ([]models.CertificateCourse, error) {
	cert, err := s.store.Certificate(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if cert == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
	}
	courses, err := s.store.CertificateCourses(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate courses")
	}
	return courses, nil
}

func (s *CertificateService) detail(ctx context.Context, cert *models.Certificate) (*CertificateDetail, error) {
	courses, err := s.store.CertificateCourses(ctx, cert.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate courses")
	}
	return &CertificateDetail{Certificate: *cert, Courses: courses}, nil
}
