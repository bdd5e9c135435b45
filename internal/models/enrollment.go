package models

import "time"

// Enrollment is the materialized state of one license token.
type Enrollment struct {
	ID       string `db:"id" json:"id"`
	Student  string `db:"student" json:"student"`
	CourseID string `db:"course_id" json:"course_id"`

	IsActive   bool  `db:"is_active" json:"is_active"`
	ValidUntil int64 `db:"valid_until" json:"valid_until"`

	TotalSpent     Amount `db:"total_spent" json:"total_spent"`
	PlatformFees   Amount `db:"platform_fees" json:"platform_fees"`
	RenewalCount   int64  `db:"renewal_count" json:"renewal_count"`

	// SectionsCompleted is capped at the course's current SectionsCount;
	// CompletionPercentage is floor(SectionsCompleted*100/SectionsCount) as of
	// the last recompute.
	SectionsCompleted    int64      `db:"sections_completed" json:"sections_completed"`
	CompletionPercentage int64      `db:"completion_percentage" json:"completion_percentage"`
	IsCompleted          bool       `db:"is_completed" json:"is_completed"`
	CompletionDate       *time.Time `db:"completion_date" json:"completion_date,omitempty"`

	CertificateID *string `db:"certificate_id" json:"certificate_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	TxHash    string    `db:"tx_hash" json:"tx_hash"`
}

// StudentCourseEnrollment maps (student, courseId) to the enrollment token so
// progress events resolve their enrollment without a scan.
type StudentCourseEnrollment struct {
	ID           string `db:"id" json:"id"`
	Student      string `db:"student" json:"student"`
	CourseID     string `db:"course_id" json:"course_id"`
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
}

// CourseEnrollment maps courseId to each of its enrollments. The completion
// recompute cascade walks this index when a course's section count changes.
type CourseEnrollment struct {
	ID           string `db:"id" json:"id"`
	CourseID     string `db:"course_id" json:"course_id"`
	EnrollmentID string `db:"enrollment_id" json:"enrollment_id"`
}

// EnrollmentFilter captures query parameters for listing enrollments.
type EnrollmentFilter struct {
	Student   string
	CourseID  string
	Active    *bool
	Completed *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
