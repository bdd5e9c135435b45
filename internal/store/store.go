// Package store defines the entity store the mapping layer writes and the
// query layer reads. Reads return (nil, nil) when the entity does not exist:
// a caller always sees either a fully initialized record or an explicit
// absence, never a partial one.
package store

import (
	"context"

	"github.com/learnledger/indexer/internal/models"
)

// Store is the uniform accessor over the materialized entity graph. The
// ingest loop guarantees handlers exclusive access for the duration of one
// event, so implementations need no locking beyond their own consistency.
type Store interface {
	Course(ctx context.Context, id string) (*models.Course, error)
	SaveCourse(ctx context.Context, c *models.Course) error
	ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, int, error)

	Section(ctx context.Context, id string) (*models.CourseSection, error)
	SaveSection(ctx context.Context, s *models.CourseSection) error
	// SectionsByCourse returns the course's non-deleted sections ordered by
	// OrderID. With includeDeleted it returns all rows, deleted ones last.
	SectionsByCourse(ctx context.Context, courseID string, includeDeleted bool) ([]models.CourseSection, error)

	Rating(ctx context.Context, id string) (*models.CourseRating, error)
	SaveRating(ctx context.Context, r *models.CourseRating) error

	Profile(ctx context.Context, id string) (*models.UserProfile, error)
	SaveProfile(ctx context.Context, p *models.UserProfile) error

	TeacherStudent(ctx context.Context, id string) (*models.TeacherStudent, error)
	SaveTeacherStudent(ctx context.Context, ts *models.TeacherStudent) error

	Enrollment(ctx context.Context, id string) (*models.Enrollment, error)
	SaveEnrollment(ctx context.Context, e *models.Enrollment) error
	ListEnrollments(ctx context.Context, f models.EnrollmentFilter) ([]models.Enrollment, int, error)

	StudentCourseEnrollment(ctx context.Context, id string) (*models.StudentCourseEnrollment, error)
	SaveStudentCourseEnrollment(ctx context.Context, sce *models.StudentCourseEnrollment) error

	SaveCourseEnrollment(ctx context.Context, ce *models.CourseEnrollment) error
	// EnrollmentsByCourse resolves the course -> enrollment index and loads
	// each enrollment. This backs the completion recompute cascade.
	EnrollmentsByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)

	Certificate(ctx context.Context, id string) (*models.Certificate, error)
	SaveCertificate(ctx context.Context, c *models.Certificate) error
	CertificateByOwner(ctx context.Context, owner string) (*models.Certificate, error)

	CertificateCourse(ctx context.Context, id string) (*models.CertificateCourse, error)
	SaveCertificateCourse(ctx context.Context, cc *models.CertificateCourse) error
	CertificateCourses(ctx context.Context, certificateID string) ([]models.CertificateCourse, error)

	AppendActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, f models.ActivityFilter) ([]models.Activity, int, error)

	PlatformStats(ctx context.Context) (*models.PlatformStats, error)
	SavePlatformStats(ctx context.Context, s *models.PlatformStats) error

	ContractStats(ctx context.Context, id string) (*models.ContractStats, error)
	SaveContractStats(ctx context.Context, s *models.ContractStats) error

	Cursor(ctx context.Context) (*models.Cursor, error)
	SaveCursor(ctx context.Context, c *models.Cursor) error

	IsProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, m *models.ProcessedEvent) error
}

// Backend is a Store whose per-event writes can be committed atomically.
type Backend interface {
	Store

	// InTx runs fn against a transactional view of the store; all writes
	// commit together or not at all. The memory backend runs fn directly.
	InTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
	Close() error
}
