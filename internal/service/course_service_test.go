package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/learnledger/indexer/pkg/errors"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

var testAnchor = store.Anchor{At: time.Unix(1700000000, 0).UTC(), TxHash: "0xabc"}

func seedCourses(t *testing.T, mem *store.Memory, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		course := store.NewCourse(string(rune('a'+i)), testAnchor)
		course.Creator = "0xcreator"
		course.Title = "Course " + string(rune('A'+i))
		require.NoError(t, mem.SaveCourse(ctx, course))
	}
}

func TestCourseServiceGetJoinsSections(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	course := store.NewCourse("1", testAnchor)
	course.Title = "Solidity Basics"
	require.NoError(t, mem.SaveCourse(ctx, course))
	for _, id := range []int64{1, 2} {
		require.NoError(t, mem.SaveSection(ctx, store.NewSection("1", id, testAnchor)))
	}

	svc := NewCourseService(mem, nil)
	detail, err := svc.Get(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, "Solidity Basics", detail.Title)
	require.Len(t, detail.Sections, 2)
	require.Equal(t, int64(1), detail.Sections[0].OrderID)
}

func TestCourseServiceGetHidesDeletedCourses(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	course := store.NewCourse("1", testAnchor)
	course.IsDeleted = true
	require.NoError(t, mem.SaveCourse(ctx, course))

	svc := NewCourseService(mem, nil)
	_, err := svc.Get(ctx, "1")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	_, err = svc.Get(ctx, "missing")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceListPaginates(t *testing.T) {
	mem := store.NewMemory()
	seedCourses(t, mem, 5)

	svc := NewCourseService(mem, nil)
	courses, page, err := svc.List(context.Background(), models.CourseFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, 5, page.TotalCount)
	require.Equal(t, 2, page.Page)
}
