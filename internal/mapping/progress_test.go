package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnledger/indexer/internal/events"
	"github.com/learnledger/indexer/internal/store"
)

func progress(t *testing.T, e *Engine, s store.Store, name, student, courseID string, sectionID int64) {
	t.Helper()
	apply(t, e, s, evt(events.ContractProgress, name, events.ProgressPayload{
		Student: student, CourseID: courseID, SectionID: sectionID,
	}))
}

func TestSectionCompletionPercentageFloors(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60, 120, 180)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")

	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(1), enrollment.SectionsCompleted)
	// 1 of 3 floors to 33, never rounds to 34.
	assert.Equal(t, int64(33), enrollment.CompletionPercentage)
	assert.False(t, enrollment.IsCompleted)
}

func TestSectionDeleteRecomputesCompletionPercentages(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60, 120, 180)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)

	apply(t, e, s, evt(events.ContractCatalog, events.SectionDeleted, events.SectionDeletedPayload{
		CourseID: "1", SectionID: 1,
	}))

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(1), enrollment.SectionsCompleted)
	assert.Equal(t, int64(50), enrollment.CompletionPercentage)
}

func TestSectionDeleteCanFlipEnrollmentToCompleted(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60, 120, 180)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 1)

	apply(t, e, s, evt(events.ContractCatalog, events.SectionDeleted, events.SectionDeletedPayload{
		CourseID: "1", SectionID: 2,
	}))

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(100), enrollment.CompletionPercentage)
	assert.True(t, enrollment.IsCompleted)
	require.NotNil(t, enrollment.CompletionDate)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), course.CompletedStudents)
	assert.Equal(t, int64(100), course.CompletionRate)

	profile, err := s.Profile(ctx, "0xstudent")
	require.NoError(t, err)
	assert.Equal(t, int64(1), profile.CompletedCourses)
}

func TestSectionAddFlipsCompletedEnrollmentBack(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	require.True(t, enrollment.IsCompleted)

	apply(t, e, s, evt(events.ContractCatalog, events.SectionAdded, events.SectionAddedPayload{
		CourseID: "1", SectionID: 1, Title: "Section 1", Duration: 90,
	}))

	enrollment, err = s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.False(t, enrollment.IsCompleted)
	assert.Nil(t, enrollment.CompletionDate)
	assert.Equal(t, int64(50), enrollment.CompletionPercentage)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, course.CompletedStudents)

	profile, err := s.Profile(ctx, "0xstudent")
	require.NoError(t, err)
	assert.Zero(t, profile.CompletedCourses)
}

func TestCourseCompletedSnapshotIsIdempotent(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60, 120)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")

	done := evt(events.ContractProgress, events.CourseCompleted, events.ProgressPayload{
		Student: "0xstudent", CourseID: "1",
	})
	apply(t, e, s, done)
	apply(t, e, s, done)

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(2), enrollment.SectionsCompleted)
	assert.Equal(t, int64(100), enrollment.CompletionPercentage)
	assert.True(t, enrollment.IsCompleted)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), course.CompletedStudents)
}

func TestProgressResetUndoesCompletionOnce(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)

	reset := evt(events.ContractProgress, events.ProgressReset, events.ProgressPayload{
		Student: "0xstudent", CourseID: "1",
	})
	apply(t, e, s, reset)
	apply(t, e, s, reset)

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Zero(t, enrollment.SectionsCompleted)
	assert.Zero(t, enrollment.CompletionPercentage)
	assert.False(t, enrollment.IsCompleted)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, course.CompletedStudents)

	profile, err := s.Profile(ctx, "0xstudent")
	require.NoError(t, err)
	assert.Zero(t, profile.CompletedCourses)
}

func TestSectionFunnelTracksDropoff(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60, 120)
	seedEnrollment(t, e, s, "100", "1", "0xa", "100")
	seedEnrollment(t, e, s, "101", "1", "0xb", "100")

	progress(t, e, s, events.SectionStarted, "0xa", "1", 0)
	progress(t, e, s, events.SectionStarted, "0xb", "1", 0)
	progress(t, e, s, events.SectionCompleted, "0xa", "1", 0)

	section, err := s.Section(ctx, store.SectionKey("1", 0))
	require.NoError(t, err)
	assert.Equal(t, int64(2), section.StartedCount)
	assert.Equal(t, int64(1), section.CompletedCount)
	assert.InDelta(t, 0.5, section.DropoffRate, 1e-9)
}

func TestSectionCompletedCapsAtSectionCount(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	seedEnrollment(t, e, s, "100", "1", "0xstudent", "100")

	// Redelivered completions for the same section must not push the counter
	// past the course's section count.
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)
	progress(t, e, s, events.SectionCompleted, "0xstudent", "1", 0)

	enrollment, err := s.Enrollment(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, int64(1), enrollment.SectionsCompleted)
	assert.Equal(t, int64(100), enrollment.CompletionPercentage)

	course, err := s.Course(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), course.CompletedStudents)
}

func TestProgressBeforeEnrollmentIsSkipped(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	seedCourse(t, e, s, "1", "0xcreator", 60)
	progress(t, e, s, events.SectionCompleted, "0xnobody", "1", 0)

	section, err := s.Section(ctx, store.SectionKey("1", 0))
	require.NoError(t, err)
	assert.Zero(t, section.CompletedCount)
}