package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnledger/indexer/internal/events"
)

func TestLicenseMintedAppliesExactFeeSplit(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "1000000")

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1000000", course.TotalRevenue.String())
	assert.Equal(t, "20000", course.PlatformFees.String())
	assert.Equal(t, "980000", course.CreatorRevenue.String())
	assert.Equal(t, int64(1), course.EnrollmentsCount)
	assert.Equal(t, int64(1), course.ActiveEnrollments)

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, "0xstudent", enrollment.Student)
	assert.True(t, enrollment.IsActive)
	assert.Equal(t, "1000000", enrollment.TotalSpent.String())
	assert.Equal(t, "20000", enrollment.PlatformFees.String())

	creator, err := s.Profile(ctx, "0xcreator")
	require.NoError(t, err)
	assert.Equal(t, "980000", creator.TotalEarned.String())
	assert.Equal(t, "20000", creator.PlatformFeesPaid.String())

	student, err := s.Profile(ctx, "0xstudent")
	require.NoError(t, err)
	assert.Equal(t, "1000000", student.TotalSpent.String())
	assert.Equal(t, int64(1), student.CoursesEnrolled)
}

func TestLicenseMintedReplayDoesNotDoubleCount(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)

	env := evt(events.ContractLicense, events.LicenseMinted, events.LicenseMintedPayload{
		TokenID: "100", CourseID: "1", Student: "0xstudent", Price: "1000000", ValidUntil: 1900000000,
	})
	apply(t, e, s, env)
	apply(t, e, s, env)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1000000", course.TotalRevenue.String())
	assert.Equal(t, int64(1), course.EnrollmentsCount)
}

func TestUniqueStudentCountIsSetCardinality(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedCourse(t, e, s, "2", "0xcreator", 60)

	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")
	seedEnrollment(t, e, s, "101", "2", "0xstudent", "100")

	creator, err := s.Profile(ctx, "0xcreator")
	require.NoError(t, err)
	assert.Equal(t, int64(1), creator.UniqueStudents)

	relation, err := s.TeacherStudent(ctx, "0xcreator-0xstudent")
	require.NoError(t, err)
	require.NotNil(t, relation)
	assert.Equal(t, int64(2), relation.CoursesPurchased)
	assert.Equal(t, "200", relation.TotalSpent.String())

	seedEnrollment(t, e, s, "102", "1", "0xother", "100")
	creator, err = s.Profile(ctx, "0xcreator")
	require.NoError(t, err)
	assert.Equal(t, int64(2), creator.UniqueStudents)
}

func TestLicenseRenewedSkipsUniqueStudentCounter(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "1000000")

	apply(t, e, s, evt(events.ContractLicense, events.LicenseRenewed, events.LicenseRenewedPayload{
		TokenID: "100", Price: "500000", ValidUntil: 1950000000,
	}))

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(1), enrollment.RenewalCount)
	assert.Equal(t, "1500000", enrollment.TotalSpent.String())
	assert.Equal(t, int64(1950000000), enrollment.ValidUntil)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1500000", course.TotalRevenue.String())
	// 2% of 1,000,000 plus 2% of 500,000.
	assert.Equal(t, "30000", course.PlatformFees.String())
	// Renewal is a repeat purchase: active-enrollment and unique-student
	// counters stay put.
	assert.Equal(t, int64(1), course.ActiveEnrollments)

	creator, err := s.Profile(ctx, "0xcreator")
	require.NoError(t, err)
	assert.Equal(t, int64(1), creator.UniqueStudents)
}

func TestLicenseExpiredGuardsDoubleDecrement(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")

	expire := evt(events.ContractLicense, events.LicenseExpired, events.LicenseExpiredPayload{TokenID: "100"})
	apply(t, e, s, expire)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, course.ActiveEnrollments)

	// Redelivery of the same expiry and a fresh duplicate expiry both leave
	// the counters untouched.
	apply(t, e, s, expire)
	apply(t, e, s, evt(events.ContractLicense, events.LicenseExpired, events.LicenseExpiredPayload{TokenID: "100"}))

	course, err = s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, course.ActiveEnrollments)

	student, err := s.Profile(ctx, "0xstudent")
	require.NoError(t, err)
	assert.Zero(t, student.ActiveEnrollments)
}

func TestRenewalAfterExpiryReactivates(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")
	apply(t, e, s, evt(events.ContractLicense, events.LicenseExpired, events.LicenseExpiredPayload{TokenID: "100"}))
	apply(t, e, s, evt(events.ContractLicense, events.LicenseRenewed, events.LicenseRenewedPayload{
		TokenID: "100", Price: "100", ValidUntil: 2000000000,
	}))

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.True(t, enrollment.IsActive)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), course.ActiveEnrollments)
}

func TestRevenueRecordedIsAuditOnly(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "1000000")

	apply(t, e, s, evt(events.ContractLicense, events.RevenueRecorded, events.RevenueRecordedPayload{
		CourseID: "1", Creator: "0xcreator", Amount: "1000000", Source: "mint",
	}))

	// The correlated mint already applied the split; nothing moves again.
	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1000000", course.TotalRevenue.String())
	assert.Equal(t, "20000", course.PlatformFees.String())

	activities, total, err := s.ListActivities(ctx, listAll())
	require.NoError(t, err)
	require.NotZero(t, total)
	assert.Equal(t, events.RevenueRecorded, activities[0].Event)
}

func TestLicenseMintedBeforeCourseSkips(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	apply(t, e, s, evt(events.ContractLicense, events.LicenseMinted, events.LicenseMintedPayload{
		TokenID: "100", CourseID: "404", Student: "0xstudent", Price: "100", ValidUntil: 1,
	}))

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Nil(t, enrollment)
}
