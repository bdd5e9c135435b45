package events

// Payload structs mirror the contracts' ABI fields. Addresses arrive as hex
// strings and are normalised to lower case during decode; token amounts stay
// decimal strings until the mapping layer parses them.

// CourseCreatedPayload announces a new catalog entry.
type CourseCreatedPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Creator  string `json:"creator" validate:"required"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Category int    `json:"category"`
}

// CourseUpdatedPayload overwrites price and active state.
type CourseUpdatedPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Price    string `json:"price"`
	IsActive bool   `json:"is_active"`
}

// CourseDeletedPayload soft-deletes a course and its sections.
type CourseDeletedPayload struct {
	CourseID string `json:"course_id" validate:"required"`
}

// SectionAddedPayload appends a section to a course.
type SectionAddedPayload struct {
	CourseID  string `json:"course_id" validate:"required"`
	SectionID int64  `json:"section_id"`
	Title     string `json:"title"`
	Duration  int64  `json:"duration"`
}

// SectionDeletedPayload soft-deletes one section.
type SectionDeletedPayload struct {
	CourseID  string `json:"course_id" validate:"required"`
	SectionID int64  `json:"section_id"`
}

// SectionMovedPayload repositions a section. SectionID is the stable identity;
// Title remains for streams emitted before the id field existed.
type SectionMovedPayload struct {
	CourseID  string `json:"course_id" validate:"required"`
	SectionID *int64 `json:"section_id,omitempty"`
	Title     string `json:"title"`
	FromIndex int64  `json:"from_index"`
	ToIndex   int64  `json:"to_index"`
}

// SectionsSwappedPayload exchanges the sections at two order positions.
type SectionsSwappedPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	IndexA   int64  `json:"index_a"`
	IndexB   int64  `json:"index_b"`
}

// SectionsReorderedPayload carries the full permutation: position i holds the
// section id that now has order i.
type SectionsReorderedPayload struct {
	CourseID   string  `json:"course_id" validate:"required"`
	SectionIDs []int64 `json:"section_ids" validate:"required"`
}

// CourseRatedPayload records a new rating. ScaledAverage is the authoritative
// course average pre-scaled by 10^4; it is trusted, never recomputed.
type CourseRatedPayload struct {
	CourseID      string `json:"course_id" validate:"required"`
	Student       string `json:"student" validate:"required"`
	Rating        int64  `json:"rating"`
	ScaledAverage int64  `json:"scaled_average"`
}

// RatingDeletedPayload withdraws a rating. No authoritative average is
// supplied, so the handler recomputes sum/count locally.
type RatingDeletedPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Student  string `json:"student" validate:"required"`
}

// CourseModerationPayload is shared by blacklist, pause and emergency events.
type CourseModerationPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Reason   string `json:"reason"`
}

// LicenseMintedPayload creates an enrollment.
type LicenseMintedPayload struct {
	TokenID    string `json:"token_id" validate:"required"`
	CourseID   string `json:"course_id" validate:"required"`
	Student    string `json:"student" validate:"required"`
	Price      string `json:"price"`
	ValidUntil int64  `json:"valid_until"`
}

// LicenseRenewedPayload extends an enrollment.
type LicenseRenewedPayload struct {
	TokenID    string `json:"token_id" validate:"required"`
	Price      string `json:"price"`
	ValidUntil int64  `json:"valid_until"`
}

// LicenseExpiredPayload deactivates an enrollment.
type LicenseExpiredPayload struct {
	TokenID string `json:"token_id" validate:"required"`
}

// RevenueRecordedPayload is a supplementary audit event correlated with a mint
// or renewal; it must never re-apply the fee split.
type RevenueRecordedPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Creator  string `json:"creator" validate:"required"`
	Amount   string `json:"amount"`
	Source   string `json:"source"`
}

// ProgressPayload is shared by the four progress events; SectionID is unused
// for course-level events.
type ProgressPayload struct {
	Student   string `json:"student" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	SectionID int64  `json:"section_id"`
}

// CertificateMintedPayload creates a certificate.
type CertificateMintedPayload struct {
	CertificateID string `json:"certificate_id" validate:"required"`
	Owner         string `json:"owner" validate:"required"`
	MetadataURI   string `json:"metadata_uri"`
}

// CourseAddedPayload records a course addition to a certificate.
type CourseAddedPayload struct {
	CertificateID string `json:"certificate_id" validate:"required"`
	CourseID      string `json:"course_id" validate:"required"`
	Student       string `json:"student" validate:"required"`
	PricePaid     string `json:"price_paid"`
}

// CertificateUpdatedPayload refreshes certificate metadata.
type CertificateUpdatedPayload struct {
	CertificateID string `json:"certificate_id" validate:"required"`
	MetadataURI   string `json:"metadata_uri"`
}

// CertificateRevokedPayload soft-invalidates a certificate.
type CertificateRevokedPayload struct {
	CertificateID string `json:"certificate_id" validate:"required"`
}

// CertificatePaymentPayload is an audit-only payment record.
type CertificatePaymentPayload struct {
	CertificateID string `json:"certificate_id" validate:"required"`
	Amount        string `json:"amount"`
}
