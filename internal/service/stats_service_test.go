package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learnledger/indexer/internal/store"
)

func TestStatsOverviewIsZeroValuedBeforeFirstEvent(t *testing.T) {
	svc := NewStatsService(store.NewMemory(), nil)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), overview.Platform.TotalCourses)
	require.Len(t, overview.Contracts, 4)
	for _, cs := range overview.Contracts {
		require.Equal(t, int64(0), cs.EventsProcessed)
	}
	require.Nil(t, overview.Cursor)
}

func TestStatsOverviewReportsCursorWhenPresent(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	cursor := store.NewCursor()
	cursor.BlockNumber = 42
	require.NoError(t, mem.SaveCursor(ctx, cursor))

	stats := store.NewPlatformStats(testAnchor)
	stats.TotalCourses = 3
	require.NoError(t, mem.SavePlatformStats(ctx, stats))

	svc := NewStatsService(mem, nil)
	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), overview.Platform.TotalCourses)
	require.NotNil(t, overview.Cursor)
	require.Equal(t, uint64(42), overview.Cursor.BlockNumber)
}
