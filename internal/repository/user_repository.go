package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/learnledger/indexer/internal/models"
)

const profileColumns = `id, total_spent, courses_enrolled, active_enrollments, completed_courses,
	certificate_id, certificate_courses,
	courses_created, active_courses, total_earned, platform_fees_paid, unique_students, first_course_at,
	is_blacklisted, created_at, updated_at`

func (s *session) Profile(ctx context.Context, id string) (*models.UserProfile, error) {
	var p models.UserProfile
	found, err := s.getOne(ctx, &p,
		fmt.Sprintf("SELECT %s FROM user_profiles WHERE id = $1", profileColumns), id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &p, nil
}

func (s *session) SaveProfile(ctx context.Context, p *models.UserProfile) error {
	query := `INSERT INTO user_profiles (id, total_spent, courses_enrolled, active_enrollments, completed_courses,
			certificate_id, certificate_courses,
			courses_created, active_courses, total_earned, platform_fees_paid, unique_students, first_course_at,
			is_blacklisted, created_at, updated_at)
		VALUES (:id, :total_spent, :courses_enrolled, :active_enrollments, :completed_courses,
			:certificate_id, :certificate_courses,
			:courses_created, :active_courses, :total_earned, :platform_fees_paid, :unique_students, :first_course_at,
			:is_blacklisted, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			total_spent = EXCLUDED.total_spent,
			courses_enrolled = EXCLUDED.courses_enrolled,
			active_enrollments = EXCLUDED.active_enrollments,
			completed_courses = EXCLUDED.completed_courses,
			certificate_id = EXCLUDED.certificate_id,
			certificate_courses = EXCLUDED.certificate_courses,
			courses_created = EXCLUDED.courses_created,
			active_courses = EXCLUDED.active_courses,
			total_earned = EXCLUDED.total_earned,
			platform_fees_paid = EXCLUDED.platform_fees_paid,
			unique_students = EXCLUDED.unique_students,
			first_course_at = EXCLUDED.first_course_at,
			is_blacklisted = EXCLUDED.is_blacklisted,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *session) TeacherStudent(ctx context.Context, id string) (*models.TeacherStudent, error) {
	var ts models.TeacherStudent
	found, err := s.getOne(ctx, &ts,
		`SELECT id, teacher, student, courses_purchased, total_spent, first_purchase_at, updated_at
		 FROM teacher_students WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get teacher student: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &ts, nil
}

func (s *session) SaveTeacherStudent(ctx context.Context, ts *models.TeacherStudent) error {
	query := `INSERT INTO teacher_students (id, teacher, student, courses_purchased, total_spent, first_purchase_at, updated_at)
		VALUES (:id, :teacher, :student, :courses_purchased, :total_spent, :first_purchase_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			courses_purchased = EXCLUDED.courses_purchased,
			total_spent = EXCLUDED.total_spent,
			updated_at = EXCLUDED.updated_at`
	if _, err := sqlx.NamedExecContext(ctx, s.ext, query, ts); err != nil {
		return fmt.Errorf("save teacher student: %w", err)
	}
	return nil
}
