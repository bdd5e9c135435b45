package models

import "time"

// PlatformStatsID is the well-known id of the singleton platform stats row.
// Dataset-wide counters live in a normal row so every update happens inside
// the same transaction as the entity writes it accounts for.
const PlatformStatsID = "platform"

// CursorID is the well-known id of the singleton ingest cursor row.
const CursorID = "cursor"

// PlatformStats is the dataset-wide running aggregate row.
type PlatformStats struct {
	ID                string    `db:"id" json:"id"`
	TotalTransactions int64     `db:"total_transactions" json:"total_transactions"`
	TotalCourses      int64     `db:"total_courses" json:"total_courses"`
	TotalEnrollments  int64     `db:"total_enrollments" json:"total_enrollments"`
	TotalCertificates int64     `db:"total_certificates" json:"total_certificates"`
	TotalUsers        int64     `db:"total_users" json:"total_users"`
	TotalRevenue      Amount    `db:"total_revenue" json:"total_revenue"`
	TotalPlatformFees Amount    `db:"total_platform_fees" json:"total_platform_fees"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// ContractStats tracks per-contract interaction counts, keyed by the contract
// stream name.
type ContractStats struct {
	ID              string    `db:"id" json:"id"`
	EventsProcessed int64     `db:"events_processed" json:"events_processed"`
	LastBlock       uint64    `db:"last_block" json:"last_block"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Cursor is the persisted ingest position. It advances in the same
// transaction that commits the event it refers to.
type Cursor struct {
	ID          string    `db:"id" json:"id"`
	BlockNumber uint64    `db:"block_number" json:"block_number"`
	TxIndex     uint64    `db:"tx_index" json:"tx_index"`
	LogIndex    uint64    `db:"log_index" json:"log_index"`
	StreamID    string    `db:"stream_id" json:"stream_id"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ProcessedEvent marks a financially significant event as applied, guarding
// aggregates against double-counting under at-least-once redelivery.
type ProcessedEvent struct {
	ID          string    `db:"id" json:"id"`
	Event       string    `db:"event" json:"event"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}
