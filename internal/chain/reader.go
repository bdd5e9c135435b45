// Package chain provides the read-only dependency calls used to backfill
// descriptive fields the event payloads omit. Calls are bounded, synchronous
// and side-effect free; failure is an expected outcome the mapping layer
// resolves to documented fallbacks.
package chain

import (
	"context"
	"errors"
)

// ErrCallFailed signals a reverted or unreachable read-only call. Callers fall
// back to static defaults instead of aborting the stream.
var ErrCallFailed = errors.New("chain: read-only call failed")

// CourseMetadata holds the catalog fields not carried by CourseCreated.
type CourseMetadata struct {
	Description string
	Thumbnail   string
	CreatorName string
}

// CertificateMetadata holds the display fields not carried by CertificateMinted.
type CertificateMetadata struct {
	Name     string
	ImageURI string
}

// Reader is the read-only view over the source contracts.
type Reader interface {
	CourseMetadata(ctx context.Context, courseID string) (*CourseMetadata, error)
	CertificateMetadata(ctx context.Context, certificateID string) (*CertificateMetadata, error)
}

// Static fallbacks applied when a read-only call fails.
const (
	FallbackDescription = ""
	FallbackThumbnail   = "ipfs://placeholder"
	FallbackCertName    = "Certificate"
	FallbackCertImage   = "ipfs://placeholder"
)

// StaticReader always reports call failure, forcing the fallback path. It is
// used when no RPC endpoint is configured, and in tests.
type StaticReader struct{}

func (StaticReader) CourseMetadata(ctx context.Context, courseID string) (*CourseMetadata, error) {
	return nil, ErrCallFailed
}

func (StaticReader) CertificateMetadata(ctx context.Context, certificateID string) (*CertificateMetadata, error) {
	return nil, ErrCallFailed
}
