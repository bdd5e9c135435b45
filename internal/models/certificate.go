package models

import "time"

// Certificate is the materialized state of one certificate token. TotalCourses
// only ever grows; revocation is a soft invalidate.
type Certificate struct {
	ID          string `db:"id" json:"id"`
	Owner       string `db:"owner" json:"owner"`
	Name        string `db:"name" json:"name"`
	ImageURI    string `db:"image_uri" json:"image_uri"`
	MetadataURI string `db:"metadata_uri" json:"metadata_uri"`
	IsRevoked   bool   `db:"is_revoked" json:"is_revoked"`

	TotalCourses  int64  `db:"total_courses" json:"total_courses"`
	TotalRevenue  Amount `db:"total_revenue" json:"total_revenue"`
	PlatformFees  Amount `db:"platform_fees" json:"platform_fees"`
	LastPaymentAt *time.Time `db:"last_payment_at" json:"last_payment_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	TxHash    string    `db:"tx_hash" json:"tx_hash"`
}

// CertificateCourse is the immutable junction row recording one course's
// addition to a certificate.
type CertificateCourse struct {
	ID            string `db:"id" json:"id"`
	CertificateID string `db:"certificate_id" json:"certificate_id"`
	CourseID      string `db:"course_id" json:"course_id"`
	EnrollmentID  string `db:"enrollment_id" json:"enrollment_id"`
	Student       string `db:"student" json:"student"`

	PricePaid    Amount `db:"price_paid" json:"price_paid"`
	PlatformFee  Amount `db:"platform_fee" json:"platform_fee"`
	IsFirstCourse bool  `db:"is_first_course" json:"is_first_course"`

	AddedAt time.Time `db:"added_at" json:"added_at"`
	TxHash  string    `db:"tx_hash" json:"tx_hash"`
}
