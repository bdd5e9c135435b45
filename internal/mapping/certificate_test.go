package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/store"
)

func seedCertificate(t *testing.T, e *Engine, s store.Store, certID, owner string) {
	t.Helper()
	apply(t, e, s, evt(events.ContractCertificate, events.CertificateMinted, events.CertificateMintedPayload{
		CertificateID: certID, Owner: owner, MetadataURI: "ipfs://cert/" + certID,
	}))
}

func addCourse(t *testing.T, e *Engine, s store.Store, certID, courseID, student, price string) {
	t.Helper()
	apply(t, e, s, evt(events.ContractCertificate, events.CourseAddedToCertificate, events.CourseAddedPayload{
		CertificateID: certID, CourseID: courseID, Student: student, PricePaid: price,
	}))
}

func TestCertificateMintedFallsBackWhenChainUnreachable(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCertificate(t, e, s, "7", "0xowner")

	cert, err := s.Certificate(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, cert)
	assert.Equal(t, chain.FallbackCertName, cert.Name)
	assert.Equal(t, chain.FallbackCertImage, cert.ImageURI)
	assert.Equal(t, "ipfs://cert/7", cert.MetadataURI)
	assert.Zero(t, cert.TotalCourses)

	profile, err := s.Profile(ctx, "0xowner")
	require.NoError(t, err)
	require.NotNil(t, profile.CertificateID)
	assert.Equal(t, "7", *profile.CertificateID)

	stats, err := s.PlatformStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCertificates)
}

func TestCertificateMintedReplayIsIdempotent(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	env := evt(events.ContractCertificate, events.CertificateMinted, events.CertificateMintedPayload{
		CertificateID: "7", Owner: "0xowner",
	})
	apply(t, e, s, env)
	apply(t, e, s, env)

	stats, err := s.PlatformStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCertificates)
}

func TestCertificateCourseFeeTiers(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedCourse(t, e, s, "2", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xowner", "1000000")
	seedEnrollment(t, e, s, "101", "2", "0xowner", "1000000")
	seedCertificate(t, e, s, "7", "0xowner")

	// First course pays the 10% tier, every later one the 2% tier.
	addCourse(t, e, s, "7", "1", "0xowner", "1000000")
	addCourse(t, e, s, "7", "2", "0xowner", "1000000")

	first, err := s.CertificateCourse(ctx, store.CertificateCourseKey("7", "1"))
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.IsFirstCourse)
	assert.Equal(t, "100000", first.PlatformFee.String())

	second, err := s.CertificateCourse(ctx, store.CertificateCourseKey("7", "2"))
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.False(t, second.IsFirstCourse)
	assert.Equal(t, "20000", second.PlatformFee.String())

	cert, err := s.Certificate(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cert.TotalCourses)
	assert.Equal(t, "2000000", cert.TotalRevenue.String())
	assert.Equal(t, "120000", cert.PlatformFees.String())

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, enrollment.CertificateID)
	assert.Equal(t, "7", *enrollment.CertificateID)

	profile, err := s.Profile(ctx, "0xowner")
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.CertificateCourses)
}

func TestCertificateCourseReplayDoesNotDoubleCount(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xowner", "1000000")
	seedCertificate(t, e, s, "7", "0xowner")

	env := evt(events.ContractCertificate, events.CourseAddedToCertificate, events.CourseAddedPayload{
		CertificateID: "7", CourseID: "1", Student: "0xowner", PricePaid: "1000000",
	})
	apply(t, e, s, env)
	apply(t, e, s, env)

	cert, err := s.Certificate(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cert.TotalCourses)
	assert.Equal(t, "1000000", cert.TotalRevenue.String())
}

func TestCertificateCourseBeforeEnrollmentIsRepairedByReplay(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedCertificate(t, e, s, "7", "0xowner")

	// The certificate stream ran ahead of the license stream: no enrollment
	// yet, so the junction is skipped.
	env := evt(events.ContractCertificate, events.CourseAddedToCertificate, events.CourseAddedPayload{
		CertificateID: "7", CourseID: "1", Student: "0xowner", PricePaid: "1000000",
	})
	apply(t, e, s, env)

	junction, err := s.CertificateCourse(ctx, store.CertificateCourseKey("7", "1"))
	require.NoError(t, err)
	assert.Nil(t, junction)

	// The skip must not leave a processed marker, otherwise the replay below
	// would be swallowed by the guard.
	seedEnrollment(t, e, s, "100", "1", "0xowner", "1000000")
	apply(t, e, s, env)

	junction, err = s.CertificateCourse(ctx, store.CertificateCourseKey("7", "1"))
	require.NoError(t, err)
	require.NotNil(t, junction)
	assert.True(t, junction.IsFirstCourse)
	assert.Equal(t, "100000", junction.PlatformFee.String())
}

func TestCertificateRevocationAndPayment(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCertificate(t, e, s, "7", "0xowner")

	apply(t, e, s, evt(events.ContractCertificate, events.CertificatePaymentRecorded, events.CertificatePaymentPayload{
		CertificateID: "7", Amount: "5000",
	}))

	cert, err := s.Certificate(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, cert.LastPaymentAt)
	// Payments are audit records; the aggregates settled when courses were
	// added.
	assert.Equal(t, "0", cert.TotalRevenue.String())

	revoke := evt(events.ContractCertificate, events.CertificateRevoked, events.CertificateRevokedPayload{CertificateID: "7"})
	apply(t, e, s, revoke)
	apply(t, e, s, revoke)

	cert, err = s.Certificate(ctx, "7")
	require.NoError(t, err)
	assert.True(t, cert.IsRevoked)
}

func TestCertificateUpdatedKeepsFallbacksWhenChainStillDown(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCertificate(t, e, s, "7", "0xowner")
	apply(t, e, s, evt(events.ContractCertificate, events.CertificateUpdated, events.CertificateUpdatedPayload{
		CertificateID: "7", MetadataURI: "ipfs://cert/7/v2",
	}))

	cert, err := s.Certificate(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cert/7/v2", cert.MetadataURI)
	assert.Equal(t, chain.FallbackCertName, cert.Name)
}
