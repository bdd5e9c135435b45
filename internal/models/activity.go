package models

import "time"

// Activity is one append-only audit record per processed business event. It is
// written by the projector and only ever read by API consumers.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Contract    string    `db:"contract" json:"contract"`
	Event       string    `db:"event" json:"event"`
	Actor       string    `db:"actor" json:"actor"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    string    `db:"entity_id" json:"entity_id"`
	Description string    `db:"description" json:"description"`
	BlockNumber uint64    `db:"block_number" json:"block_number"`
	TxHash      string    `db:"tx_hash" json:"tx_hash"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
}

// ActivityFilter captures query parameters for listing activities.
type ActivityFilter struct {
	Actor      string
	Contract   string
	EntityType string
	EntityID   string
	Page       int
	PageSize   int
}
