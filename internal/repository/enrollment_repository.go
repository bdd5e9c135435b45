package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/models"
)

const enrollmentColumns = `id, student, course_id, is_active, valid_until,
	total_spent, platform_fees, renewal_count,
	sections_completed, completion_percentage, is_completed, completion_date,
	certificate_id, created_at, updated_at, tx_hash`

func (s *session) Enrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	var e models.Enrollment
	found, err := s.getOne(ctx, &e,
		fmt.Sprintf("SELECT %s FROM enrollments WHERE id = $1", enrollmentColumns), id)
	if err != nil {
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &e, nil
}

func (s *session) SaveEnrollment(ctx context.Context, e *models.Enrollment) error {
	query := `INSERT INTO enrollments (id, student, course_id, is_active, valid_until,
			total_spent, platform_fees, renewal_count,
			sections_completed, completion_percentage, is_completed, completion_date,
			certificate_id, created_at, updated_at, tx_hash)
		VALUES (:id, :student, :course_id, :is_active, :valid_until,
			:total_spent, :platform_fees, :renewal_count,
			:sections_completed, :completion_percentage, :is_completed, :completion_date,
			:certificate_id, :created_at, :updated_at, :tx_hash)
		ON CONFLICT (id) DO UPDATE SET
			is_active = EXCLUDED.is_active, valid_until = EXCLUDED.valid_until,
			total_spent = EXCLUDED.total_spent, platform_fees = EXCLUDED.platform_fees,
			renewal_count = EXCLUDED.renewal_count,
			sections_completed = EXCLUDED.sections_completed,
			completion_percentage = EXCLUDED.completion_percentage,
			is_completed = EXCLUDED.is_completed,
			completion_date = EXCLUDED.completion_date,
			certificate_id = EXCLUDED.certificate_id,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, e); err != nil {
		return fmt.Errorf("save enrollment: %w", err)
	}
	return nil
}

func (s *session) ListEnrollments(ctx context.Context, f models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if f.Student != "" {
		conditions = append(conditions, fmt.Sprintf("student = $%d", len(args)+1))
		args = append(args, f.Student)
	}
	if f.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, f.CourseID)
	}
	if f.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *f.Active)
	}
	if f.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("is_completed = $%d", len(args)+1))
		args = append(args, *f.Completed)
	}
	where := strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at":            "created_at",
		"valid_until":           "valid_until",
		"completion_percentage": "completion_percentage",
	}
	column, ok := allowedSorts[f.SortBy]
	if !ok {
		column = "created_at"
	}
	size, offset := pageBounds(f.Page, f.PageSize)

	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d",
		enrollmentColumns, where, column, normalizeSort(f.SortOrder), size, offset)
	var enrollments []models.Enrollment
	if err := sqlx.SelectContext(ctx, s.ext, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM enrollments WHERE %s", where)
	if err := sqlx.GetContext(ctx, s.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

func (s *session) StudentCourseEnrollment(ctx context.Context, id string) (*models.StudentCourseEnrollment, error) {
	var sce models.StudentCourseEnrollment
	found, err := s.getOne(ctx, &sce,
		"SELECT id, student, course_id, enrollment_id FROM student_course_enrollments WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("get student course enrollment: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &sce, nil
}

func (s *session) SaveStudentCourseEnrollment(ctx context.Context, sce *models.StudentCourseEnrollment) error {
	query := `INSERT INTO student_course_enrollments (id, student, course_id, enrollment_id)
		VALUES (:id, :student, :course_id, :enrollment_id)
		ON CONFLICT (id) DO UPDATE SET enrollment_id = EXCLUDED.enrollment_id`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, sce); err != nil {
		return fmt.Errorf("save student course enrollment: %w", err)
	}
	return nil
}

func (s *session) SaveCourseEnrollment(ctx context.Context, ce *models.CourseEnrollment) error {
	query := `INSERT INTO course_enrollments (id, course_id, enrollment_id)
		VALUES (:id, :course_id, :enrollment_id)
		ON CONFLICT (id) DO NOTHING`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, ce); err != nil {
		return fmt.Errorf("save course enrollment: %w", err)
	}
	return nil
}

func (s *session) EnrollmentsByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := `SELECT e.* FROM enrollments e
		JOIN course_enrollments ce ON ce.enrollment_id = e.id
		WHERE ce.course_id = $1 ORDER BY e.created_at`
	var enrollments []models.Enrollment
	if err := sqlx.SelectContext(ctx, s.ext, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("enrollments by course: %w", err)
	}
	return enrollments, nil
}
