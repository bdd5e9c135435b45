package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/store"
)

func TestIsProcessedDistinguishesAbsence(t *testing.T) {
	pg, mock, cleanup := newBackendMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT 1 FROM processed_events WHERE id =").
		WithArgs("0xabc-0").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM processed_events WHERE id =").
		WithArgs("0xdef-1").
		WillReturnError(sql.ErrNoRows)

	done, err := pg.IsProcessed(context.Background(), "0xabc-0")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = pg.IsProcessed(context.Background(), "0xdef-1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	pg, mock, cleanup := newBackendMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ingest_cursor").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pg.InTx(context.Background(), func(s store.Store) error {
		return s.SaveCursor(context.Background(), &models.Cursor{
			ID: models.CursorID, BlockNumber: 12, UpdatedAt: time.Now(),
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnHandlerError(t *testing.T) {
	pg, mock, cleanup := newBackendMock(t)
	defer cleanup()

	boom := errors.New("handler failed")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err := pg.InTx(context.Background(), func(store.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentsByCourseWalksIndex(t *testing.T) {
	pg, mock, cleanup := newBackendMock(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"id", "student", "course_id", "is_active", "sections_completed"}).
		AddRow("100", "0xa", "1", true, 2).
		AddRow("101", "0xb", "1", true, 0)
	mock.ExpectQuery("SELECT e\\.\\* FROM enrollments e\\s+JOIN course_enrollments ce ON ce\\.enrollment_id = e\\.id").
		WithArgs("1").
		WillReturnRows(rows)

	enrollments, err := pg.EnrollmentsByCourse(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	assert.Equal(t, "0xa", enrollments[0].Student)
	assert.NoError(t, mock.ExpectationsWereMet())
}
