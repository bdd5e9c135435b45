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

func TestCourseCreatedUsesMetadataFallbacks(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xCreatorA")

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, course)
	assert.Equal(t, "0xcreatora", course.Creator)
	assert.Equal(t, chain.FallbackThumbnail, course.Thumbnail)
	assert.True(t, course.IsActive)
	assert.Equal(t, "1000000", course.Price.String())

	profile, err := s.Profile(ctx, "0xcreatora")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(1), profile.CoursesCreated)
	assert.Equal(t, int64(1), profile.ActiveCourses)
	require.NotNil(t, profile.FirstCourseAt)
	first := *profile.FirstCourseAt

	// A second course must not restamp the first-course timestamp.
	seedCourse(t, e, s, "2", "0xCreatorA")
	profile, err = s.Profile(ctx, "0xcreatora")
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.CoursesCreated)
	assert.Equal(t, first, *profile.FirstCourseAt)
}

func TestCourseCreatedReplayIsIdempotent(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	env := evt(events.ContractCatalog, events.CourseCreated, events.CourseCreatedPayload{
		CourseID: "1", Creator: "0xa", Title: "Solidity 101", Price: "5", Category: 0,
	})
	apply(t, e, s, env)
	apply(t, e, s, env)

	profile, err := s.Profile(ctx, "0xa")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.CoursesCreated)
}

func TestCourseCreatedUnknownCategory(t *testing.T) {
	payload := events.CourseCreatedPayload{CourseID: "9", Creator: "0xa", Title: "x", Price: "1", Category: 99}

	t.Run("strict mode fails fast", func(t *testing.T) {
		e, s := newTestEngine(t)
		err := e.Apply(context.Background(), s, evt(events.ContractCatalog, events.CourseCreated, payload))
		require.Error(t, err)
	})

	t.Run("production lands in the other bucket", func(t *testing.T) {
		e, s := newTestEngine(t)
		e.strictEnums = false
		apply(t, e, s, evt(events.ContractCatalog, events.CourseCreated, payload))
		course, err := s.Course(context.Background(), "9")
		require.NoError(t, err)
		require.NotNil(t, course)
		assert.Equal(t, "OTHER", string(course.Category))
	})
}

func TestCourseDeletedCascadesToSections(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xa", 60, 120, 180)
	apply(t, e, s, evt(events.ContractCatalog, events.CourseDeleted, events.CourseDeletedPayload{CourseID: "1"}))

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.True(t, course.IsDeleted)
	assert.False(t, course.IsActive)
	assert.Zero(t, course.SectionsCount)
	assert.Zero(t, course.TotalDuration)

	live, err := s.SectionsByCourse(ctx, "1", false)
	require.NoError(t, err)
	assert.Empty(t, live)

	all, err := s.SectionsByCourse(ctx, "1", true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	profile, err := s.Profile(ctx, "0xa")
	require.NoError(t, err)
	assert.Zero(t, profile.ActiveCourses)
}

func TestSectionOrderStaysDense(t *testing.T) {
	e, s := newTestEngine(t)

	seedCourse(t, e, s, "1", "0xa", 10, 20, 30, 40, 50)
	requireDense(t, s, "1")

	// Delete the middle section: everything after shifts down.
	apply(t, e, s, evt(events.ContractCatalog, events.SectionDeleted, events.SectionDeletedPayload{CourseID: "1", SectionID: 2}))
	requireDense(t, s, "1")

	// Move section 0 to the end.
	id0 := int64(0)
	apply(t, e, s, evt(events.ContractCatalog, events.SectionMoved, events.SectionMovedPayload{
		CourseID: "1", SectionID: &id0, FromIndex: 0, ToIndex: 3,
	}))
	requireDense(t, s, "1")

	// Swap the outermost positions.
	apply(t, e, s, evt(events.ContractCatalog, events.SectionsSwapped, events.SectionsSwappedPayload{
		CourseID: "1", IndexA: 0, IndexB: 3,
	}))
	requireDense(t, s, "1")

	// Full batch reorder: position i holds section id.
	apply(t, e, s, evt(events.ContractCatalog, events.SectionsReordered, events.SectionsReorderedPayload{
		CourseID: "1", SectionIDs: []int64{4, 3, 1, 0},
	}))
	requireDense(t, s, "1")

	ctx := context.Background()
	sections, err := s.SectionsByCourse(ctx, "1", false)
	require.NoError(t, err)
	var ids []int64
	for _, sec := range sections {
		ids = append(ids, sec.SectionID)
	}
	assert.Equal(t, []int64{4, 3, 1, 0}, ids)
}

func TestSectionMovedShiftsInBothDirections(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xa", 1, 1, 1, 1)

	// Move forward: 0,1,2,3 -> order becomes 1->0, 2->1, id0 at 2.
	id0 := int64(0)
	apply(t, e, s, evt(events.ContractCatalog, events.SectionMoved, events.SectionMovedPayload{
		CourseID: "1", SectionID: &id0, FromIndex: 0, ToIndex: 2,
	}))
	sec0, err := s.Section(ctx, store.SectionKey("1", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), sec0.OrderID)
	sec1, err := s.Section(ctx, store.SectionKey("1", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), sec1.OrderID)
	requireDense(t, s, "1")

	// Move backward again.
	apply(t, e, s, evt(events.ContractCatalog, events.SectionMoved, events.SectionMovedPayload{
		CourseID: "1", SectionID: &id0, FromIndex: 2, ToIndex: 0,
	}))
	sec0, err = s.Section(ctx, store.SectionKey("1", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), sec0.OrderID)
	requireDense(t, s, "1")
}

func TestSectionMovedFallsBackToTitleLookup(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xa", 1, 1, 1)

	apply(t, e, s, evt(events.ContractCatalog, events.SectionMoved, events.SectionMovedPayload{
		CourseID: "1", Title: "Section 1", FromIndex: 1, ToIndex: 2,
	}))

	sec1, err := s.Section(ctx, store.SectionKey("1", 1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), sec1.OrderID)
	requireDense(t, s, "1")
}

func TestRatingLifecycle(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xa")

	apply(t, e, s, evt(events.ContractCatalog, events.CourseRated, events.CourseRatedPayload{
		CourseID: "1", Student: "0xs1", Rating: 5, ScaledAverage: 50000,
	}))
	apply(t, e, s, evt(events.ContractCatalog, events.CourseRated, events.CourseRatedPayload{
		CourseID: "1", Student: "0xs2", Rating: 3, ScaledAverage: 40000,
	}))

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(8), course.RatingSum)
	assert.Equal(t, int64(2), course.RatingCount)
	// The pre-scaled authoritative average is trusted verbatim.
	assert.Equal(t, int64(40000), course.RatingAverage)

	apply(t, e, s, evt(events.ContractCatalog, events.RatingUpdated, events.CourseRatedPayload{
		CourseID: "1", Student: "0xs2", Rating: 1, ScaledAverage: 30000,
	}))
	course, err = s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(6), course.RatingSum)
	assert.Equal(t, int64(2), course.RatingCount)
	assert.Equal(t, int64(30000), course.RatingAverage)

	// Deletion has no authoritative average: it is recomputed locally.
	apply(t, e, s, evt(events.ContractCatalog, events.RatingDeleted, events.RatingDeletedPayload{
		CourseID: "1", Student: "0xs2",
	}))
	course, err = s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), course.RatingSum)
	assert.Equal(t, int64(1), course.RatingCount)
	assert.Equal(t, int64(50000), course.RatingAverage)
}

func TestModerationFlagFlips(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xa")

	apply(t, e, s, evt(events.ContractCatalog, events.CourseBlacklisted, events.CourseModerationPayload{CourseID: "1"}))
	apply(t, e, s, evt(events.ContractCatalog, events.RatingsPaused, events.CourseModerationPayload{CourseID: "1"}))
	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.True(t, course.IsBlacklisted)
	assert.True(t, course.RatingsPaused)

	apply(t, e, s, evt(events.ContractCatalog, events.CourseUnblacklisted, events.CourseModerationPayload{CourseID: "1"}))
	apply(t, e, s, evt(events.ContractCatalog, events.RatingsUnpaused, events.CourseModerationPayload{CourseID: "1"}))
	apply(t, e, s, evt(events.ContractCatalog, events.EmergencyDeactivated, events.CourseModerationPayload{CourseID: "1"}))
	course, err = s.Course(ctx, "1")
	require.NoError(t, err)
	assert.False(t, course.IsBlacklisted)
	assert.False(t, course.RatingsPaused)
	assert.False(t, course.IsActive)
}

func TestUnknownEventNameIsSkipped(t *testing.T) {
	e, s := newTestEngine(t)

	env := evt(events.ContractCatalog, "CourseTeleported", map[string]string{"course_id": "1"})
	apply(t, e, s, env)

	stats, err := s.PlatformStats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats)
	// Skipped events still count as processed transactions.
	assert.Equal(t, int64(1), stats.TotalTransactions)
}

func TestEventsUpdateRunningCounters(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xa", 60)
	seedEnrollment(t, e, s, "10", "1", "0xs", "1000000")

	stats, err := s.PlatformStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTransactions)
	assert.Equal(t, int64(1), stats.TotalCourses)
	assert.Equal(t, int64(1), stats.TotalEnrollments)
	assert.Equal(t, int64(2), stats.TotalUsers)

	catalog, err := s.ContractStats(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, int64(2), catalog.EventsProcessed)

	license, err := s.ContractStats(ctx, "license")
	require.NoError(t, err)
	assert.Equal(t, int64(1), license.EventsProcessed)
}
