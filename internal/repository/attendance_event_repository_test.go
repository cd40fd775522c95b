package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/models"
)

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceEventRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewAttendanceEventRepository(db)
	day := time.Date(2024, 11, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "time", "kind", "created_at"}).
		AddRow("evt-1", "stu-1", day, "07:02", models.EventKindEntry, time.Now()).
		AddRow("evt-2", "stu-1", day, "13:30", models.EventKindExit, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, date, time, kind, created_at")).
		WithArgs("stu-1", day, day).
		WillReturnRows(rows)

	events, err := repo.ListByStudent(context.Background(), models.AttendanceEventFilter{
		StudentID: "stu-1",
		DateFrom:  day,
		DateTo:    day,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "07:02", events[0].Time)
	require.Equal(t, models.EventKindExit, events[1].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceEventRepositoryListByStudentEmpty(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()

	repo := NewAttendanceEventRepository(db)
	day := time.Date(2024, 11, 9, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, date, time, kind, created_at")).
		WithArgs("stu-1", day, day).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "date", "time", "kind", "created_at"}))

	events, err := repo.ListByStudent(context.Background(), models.AttendanceEventFilter{
		StudentID: "stu-1",
		DateFrom:  day,
		DateTo:    day,
	})
	require.NoError(t, err)
	require.Empty(t, events)
	require.NoError(t, mock.ExpectationsWereMet())
}
