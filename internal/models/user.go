package models

import "time"

// UserProfile aggregates both sides of an account: what it spends as a
// student and what it earns as a creator. Profiles are created lazily on the
// first event that references the address and are never destroyed.
type UserProfile struct {
	ID string `db:"id" json:"id"`

	// Student side.
	TotalSpent        Amount  `db:"total_spent" json:"total_spent"`
	CoursesEnrolled   int64   `db:"courses_enrolled" json:"courses_enrolled"`
	ActiveEnrollments int64   `db:"active_enrollments" json:"active_enrollments"`
	CompletedCourses  int64   `db:"completed_courses" json:"completed_courses"`
	CertificateID     *string `db:"certificate_id" json:"certificate_id,omitempty"`
	CertificateCourses int64  `db:"certificate_courses" json:"certificate_courses"`

	// Creator side.
	CoursesCreated   int64      `db:"courses_created" json:"courses_created"`
	ActiveCourses    int64      `db:"active_courses" json:"active_courses"`
	TotalEarned      Amount     `db:"total_earned" json:"total_earned"`
	PlatformFeesPaid Amount     `db:"platform_fees_paid" json:"platform_fees_paid"`
	UniqueStudents   int64      `db:"unique_students" json:"unique_students"`
	FirstCourseAt    *time.Time `db:"first_course_at" json:"first_course_at,omitempty"`

	IsBlacklisted bool      `db:"is_blacklisted" json:"is_blacklisted"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherStudent records that a student has bought at least one course from a
// creator. Its existence is what makes UserProfile.UniqueStudents a set
// cardinality rather than a purchase count.
type TeacherStudent struct {
	ID               string    `db:"id" json:"id"`
	Teacher          string    `db:"teacher" json:"teacher"`
	Student          string    `db:"student" json:"student"`
	CoursesPurchased int64     `db:"courses_purchased" json:"courses_purchased"`
	TotalSpent       Amount    `db:"total_spent" json:"total_spent"`
	FirstPurchaseAt  time.Time `db:"first_purchase_at" json:"first_purchase_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
