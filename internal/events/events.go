// Package events defines the decoded form of the ledger contracts' event
// streams: a common block-metadata envelope plus one payload struct per event
// name.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Contract identifies the originating event stream.
type Contract string

const (
	ContractCatalog     Contract = "catalog"
	ContractLicense     Contract = "license"
	ContractProgress    Contract = "progress"
	ContractCertificate Contract = "certificate"
)

// Catalog contract event names.
const (
	CourseCreated        = "CourseCreated"
	CourseUpdated        = "CourseUpdated"
	CourseDeleted        = "CourseDeleted"
	SectionAdded         = "SectionAdded"
	SectionDeleted       = "SectionDeleted"
	SectionMoved         = "SectionMoved"
	SectionsSwapped      = "SectionsSwapped"
	SectionsReordered    = "SectionsReordered"
	CourseRated          = "CourseRated"
	RatingUpdated        = "RatingUpdated"
	RatingDeleted        = "RatingDeleted"
	CourseBlacklisted    = "CourseBlacklisted"
	CourseUnblacklisted  = "CourseUnblacklisted"
	RatingsPaused        = "RatingsPaused"
	RatingsUnpaused      = "RatingsUnpaused"
	EmergencyDeactivated = "EmergencyDeactivated"
)

// License contract event names.
const (
	LicenseMinted   = "LicenseMinted"
	LicenseRenewed  = "LicenseRenewed"
	LicenseExpired  = "LicenseExpired"
	RevenueRecorded = "RevenueRecorded"
)

// Progress contract event names.
const (
	SectionStarted   = "SectionStarted"
	SectionCompleted = "SectionCompleted"
	CourseCompleted  = "CourseCompleted"
	ProgressReset    = "ProgressReset"
)

// Certificate contract event names.
const (
	CertificateMinted          = "CertificateMinted"
	CourseAddedToCertificate   = "CourseAddedToCertificate"
	CertificateUpdated         = "CertificateUpdated"
	CertificateRevoked         = "CertificateRevoked"
	CertificatePaymentRecorded = "CertificatePaymentRecorded"
)

// Envelope carries the block metadata shared by every event, plus the raw
// payload decoded lazily by the handler that consumes it.
type Envelope struct {
	Contract    Contract        `json:"contract" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	BlockNumber uint64          `json:"block_number"`
	BlockTime   int64           `json:"block_time" validate:"required"`
	TxHash      string          `json:"tx_hash" validate:"required"`
	TxIndex     uint64          `json:"tx_index"`
	LogIndex    uint64          `json:"log_index"`
	Payload     json.RawMessage `json:"payload" validate:"required"`
}

// EventID is the stable identity of the event: txHash joined with logIndex.
func (e *Envelope) EventID() string {
	return fmt.Sprintf("%s-%d", e.TxHash, e.LogIndex)
}

// Time converts the block timestamp to time.Time.
func (e *Envelope) Time() time.Time {
	return time.Unix(e.BlockTime, 0).UTC()
}

// Position orders events globally as (block, tx index, log index).
type Position struct {
	Block uint64
	Tx    uint64
	Log   uint64
}

// Position returns the envelope's global ordering key.
func (e *Envelope) Position() Position {
	return Position{Block: e.BlockNumber, Tx: e.TxIndex, Log: e.LogIndex}
}

// After reports whether p comes strictly after q in stream order.
func (p Position) After(q Position) bool {
	if p.Block != q.Block {
		return p.Block > q.Block
	}
	if p.Tx != q.Tx {
		return p.Tx > q.Tx
	}
	return p.Log > q.Log
}
