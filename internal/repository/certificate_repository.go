package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/models"
)

const certificateColumns = `id, owner, name, image_uri, metadata_uri, is_revoked,
	total_courses, total_revenue, platform_fees, last_payment_at,
	created_at, updated_at, tx_hash`

func (s *session) Certificate(ctx context.Context, id string) (*models.Certificate, error) {
	var c models.Certificate
	found, err := s.getOne(ctx, &c,
		fmt.Sprintf("SELECT %s FROM certificates WHERE id = $1", certificateColumns), id)
	if err != nil {
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *session) CertificateByOwner(ctx context.Context, owner string) (*models.Certificate, error) {
	var c models.Certificate
	found, err := s.getOne(ctx, &c,
		fmt.Sprintf("SELECT %s FROM certificates WHERE owner = $1 LIMIT 1", certificateColumns), owner)
	if err != nil {
		return nil, fmt.Errorf("certificate by owner: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &c, nil
}

func (s *session) SaveCertificate(ctx context.Context, c *models.Certificate) error {
	query := `INSERT INTO certificates (id, owner, name, image_uri, metadata_uri, is_revoked,
			total_courses, total_revenue, platform_fees, last_payment_at,
			created_at, updated_at, tx_hash)
		VALUES (:id, :owner, :name, :image_uri, :metadata_uri, :is_revoked,
			:total_courses, :total_revenue, :platform_fees, :last_payment_at,
			:created_at, :updated_at, :tx_hash)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, image_uri = EXCLUDED.image_uri,
			metadata_uri = EXCLUDED.metadata_uri, is_revoked = EXCLUDED.is_revoked,
			total_courses = EXCLUDED.total_courses,
			total_revenue = EXCLUDED.total_revenue,
			platform_fees = EXCLUDED.platform_fees,
			last_payment_at = EXCLUDED.last_payment_at,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, c); err != nil {
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

const certificateCourseColumns = `id, certificate_id, course_id, enrollment_id, student,
	price_paid, platform_fee, is_first_course, added_at, tx_hash`

func (s *session) CertificateCourse(ctx context.Context, id string) (*models.CertificateCourse, error) {
	var cc models.CertificateCourse
	found, err := s.getOne(ctx, &cc,
		fmt.Sprintf("SELECT %s FROM certificate_courses WHERE id = $1", certificateCourseColumns), id)
	if err != nil {
		return nil, fmt.Errorf("get certificate course: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &cc, nil
}

// SaveCertificateCourse inserts the immutable junction row; replays hit the
// conflict branch and change nothing.
func (s *session) SaveCertificateCourse(ctx context.Context, cc *models.CertificateCourse) error {
	query := `INSERT INTO certificate_courses (id, certificate_id, course_id, enrollment_id, student,
			price_paid, platform_fee, is_first_course, added_at, tx_hash)
		VALUES (:id, :certificate_id, :course_id, :enrollment_id, :student,
			:price_paid, :platform_fee, :is_first_course, :added_at, :tx_hash)
		ON CONFLICT (id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, cc); err != nil {
		return fmt.Errorf("save certificate course: %w", err)
	}
	return nil
}

func (s *session) CertificateCourses(ctx context.Context, certificateID string) ([]models.CertificateCourse, error) {
	query := fmt.Sprintf("SELECT %s FROM certificate_courses WHERE certificate_id = $1 ORDER BY added_at",
		certificateCourseColumns)
	var out []models.CertificateCourse
	if err := sqlx.SelectContext(ctx, s.ext, &out, query, certificateID); err != nil {
		return nil, fmt.Errorf("certificate courses: %w", err)
	}
	return out, nil
}
