package store

import (
	"context"
	"fmt"
	"time"

	"github.com/learnledger/indexer/internal/models"
)

// Anchor ties a newly created entity to the event that created it.
type Anchor struct {
	At     time.Time
	TxHash string
}

// Composite ids join their natural keys with a fixed delimiter.
const idSep = "-"

// SectionKey builds the composite id of a course section.
func SectionKey(courseID string, sectionID int64) string {
	return fmt.Sprintf("%s%s%d", courseID, idSep, sectionID)
}

// RatingKey builds the composite id of a student's course rating.
func RatingKey(courseID, student string) string {
	return courseID + idSep + student
}

// StudentCourseKey builds the composite id of the (student, course) index.
func StudentCourseKey(student, courseID string) string {
	return student + idSep + courseID
}

// CourseEnrollmentKey builds the composite id of the course -> enrollment index.
func CourseEnrollmentKey(courseID, enrollmentID string) string {
	return courseID + idSep + enrollmentID
}

// TeacherStudentKey builds the composite id of the creator/student relation.
func TeacherStudentKey(teacher, student string) string {
	return teacher + idSep + student
}

// CertificateCourseKey builds the composite id of a certificate junction row.
func CertificateCourseKey(certificateID, courseID string) string {
	return certificateID + idSep + courseID
}

// Default constructors. Every load-or-create path goes through one of these
// so no field initialisation can be forgotten in one call site and present in
// another.

// NewCourse returns a course with every aggregate zeroed.
func NewCourse(id string, a Anchor) *models.Course {
	return &models.Course{
		ID:        id,
		Category:  models.CategoryOther,
		IsActive:  true,
		CreatedAt: a.At,
		UpdatedAt: a.At,
		TxHash:    a.TxHash,
	}
}

// NewSection returns a section positioned at the given initial order.
func NewSection(courseID string, sectionID int64, a Anchor) *models.CourseSection {
	return &models.CourseSection{
		ID:        SectionKey(courseID, sectionID),
		CourseID:  courseID,
		SectionID: sectionID,
		OrderID:   sectionID,
		CreatedAt: a.At,
		UpdatedAt: a.At,
	}
}

// NewProfile returns an empty dual-role profile.
func NewProfile(id string, a Anchor) *models.UserProfile {
	return &models.UserProfile{
		ID:        id,
		CreatedAt: a.At,
		UpdatedAt: a.At,
	}
}

// NewEnrollment returns an enrollment owned by student for course.
func NewEnrollment(id, student, courseID string, a Anchor) *models.Enrollment {
	return &models.Enrollment{
		ID:        id,
		Student:   student,
		CourseID:  courseID,
		IsActive:  true,
		CreatedAt: a.At,
		UpdatedAt: a.At,
		TxHash:    a.TxHash,
	}
}

// NewCertificate returns a certificate owned by owner.
func NewCertificate(id, owner string, a Anchor) *models.Certificate {
	return &models.Certificate{
		ID:        id,
		Owner:     owner,
		CreatedAt: a.At,
		UpdatedAt: a.At,
		TxHash:    a.TxHash,
	}
}

// NewPlatformStats returns the zeroed singleton row.
func NewPlatformStats(a Anchor) *models.PlatformStats {
	return &models.PlatformStats{ID: models.PlatformStatsID, UpdatedAt: a.At}
}

// NewContractStats returns a zeroed per-contract row.
func NewContractStats(id string, a Anchor) *models.ContractStats {
	return &models.ContractStats{ID: id, UpdatedAt: a.At}
}

// NewCursor returns the zero ingest position.
func NewCursor() *models.Cursor {
	return &models.Cursor{ID: models.CursorID}
}

// Load-or-create accessors used across every handler group.

// EnsureProfile loads the profile or creates its default.
func EnsureProfile(ctx context.Context, s Store, id string, a Anchor) (*models.UserProfile, error) {
	p, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = NewProfile(id, a)
	}
	return p, nil
}

// EnsurePlatformStats loads the singleton stats row or creates its default.
func EnsurePlatformStats(ctx context.Context, s Store, a Anchor) (*models.PlatformStats, error) {
	st, err := s.PlatformStats(ctx)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = NewPlatformStats(a)
	}
	return st, nil
}

// EnsureContractStats loads a per-contract stats row or creates its default.
func EnsureContractStats(ctx context.Context, s Store, id string, a Anchor) (*models.ContractStats, error) {
	st, err := s.ContractStats(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		st = NewContractStats(id, a)
	}
	return st, nil
}

// EnsureCursor loads the cursor row or creates the zero position.
func EnsureCursor(ctx context.Context, s Store) (*models.Cursor, error) {
	c, err := s.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = NewCursor()
	}
	return c, nil
}
