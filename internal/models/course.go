package models

import "time"

// CourseCategory is the decoded category enum carried by CourseCreated.
type CourseCategory string

// Known course categories. Other catches enum indices this build does not
// know about yet; see events.CategoryFromIndex.
const (
	CategoryDevelopment CourseCategory = "DEVELOPMENT"
	CategoryDesign      CourseCategory = "DESIGN"
	CategoryBusiness    CourseCategory = "BUSINESS"
	CategoryMarketing   CourseCategory = "MARKETING"
	CategoryScience     CourseCategory = "SCIENCE"
	CategoryLanguage    CourseCategory = "LANGUAGE"
	CategoryOther       CourseCategory = "OTHER"
)

// RatingScale is the fixed-point scale of RatingAverage (10^4).
const RatingScale = 10000

// Course is the materialized view of one catalog entry.
type Course struct {
	ID          string         `db:"id" json:"id"`
	Creator     string         `db:"creator" json:"creator"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Thumbnail   string         `db:"thumbnail" json:"thumbnail"`
	Category    CourseCategory `db:"category" json:"category"`
	Price       Amount         `db:"price" json:"price"`

	IsActive      bool `db:"is_active" json:"is_active"`
	IsDeleted     bool `db:"is_deleted" json:"is_deleted"`
	IsBlacklisted bool `db:"is_blacklisted" json:"is_blacklisted"`
	RatingsPaused bool `db:"ratings_paused" json:"ratings_paused"`

	// SectionsCount always equals the number of non-deleted sections.
	SectionsCount int64 `db:"sections_count" json:"sections_count"`
	TotalDuration int64 `db:"total_duration" json:"total_duration"`

	RatingSum     int64 `db:"rating_sum" json:"rating_sum"`
	RatingCount   int64 `db:"rating_count" json:"rating_count"`
	RatingAverage int64 `db:"rating_average" json:"rating_average"`

	EnrollmentsCount  int64  `db:"enrollments_count" json:"enrollments_count"`
	ActiveEnrollments int64  `db:"active_enrollments" json:"active_enrollments"`
	CompletedStudents int64  `db:"completed_students" json:"completed_students"`
	CompletionRate    int64  `db:"completion_rate" json:"completion_rate"`
	TotalRevenue      Amount `db:"total_revenue" json:"total_revenue"`
	CreatorRevenue    Amount `db:"creator_revenue" json:"creator_revenue"`
	PlatformFees      Amount `db:"platform_fees" json:"platform_fees"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	TxHash    string    `db:"tx_hash" json:"tx_hash"`
}

// CourseSection is one section of a course. Among non-deleted siblings the
// OrderID values are always exactly {0..SectionsCount-1}.
type CourseSection struct {
	ID        string `db:"id" json:"id"`
	CourseID  string `db:"course_id" json:"course_id"`
	SectionID int64  `db:"section_id" json:"section_id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	Title     string `db:"title" json:"title"`
	Duration  int64  `db:"duration" json:"duration"`
	IsDeleted bool   `db:"is_deleted" json:"is_deleted"`

	StartedCount   int64   `db:"started_count" json:"started_count"`
	CompletedCount int64   `db:"completed_count" json:"completed_count"`
	DropoffRate    float64 `db:"dropoff_rate" json:"dropoff_rate"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseRating is one student's rating of a course, kept soft-deleted for
// history when withdrawn.
type CourseRating struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Student   string    `db:"student" json:"student"`
	Rating    int64     `db:"rating" json:"rating"`
	IsDeleted bool      `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures query parameters for listing courses.
type CourseFilter struct {
	Creator   string
	Category  string
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
