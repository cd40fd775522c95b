package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyon-access/parent-api/internal/models"
)

// AttendanceEventRepository reads raw entry/exit events captured by the
// access-control hardware. The event stream is written upstream; this API
// never mutates it.
type AttendanceEventRepository struct {
	db *sqlx.DB
}

// NewAttendanceEventRepository constructs the repository.
func NewAttendanceEventRepository(db *sqlx.DB) *AttendanceEventRepository {
	return &AttendanceEventRepository{db: db}
}

// ListByStudent returns all events for one student within the inclusive date
// range, ordered by date then time ascending.
func (r *AttendanceEventRepository) ListByStudent(ctx context.Context, filter models.AttendanceEventFilter) ([]models.AttendanceEvent, error) {
	const query = `SELECT id, student_id, date, time, kind, created_at
FROM attendance_events
WHERE student_id = $1 AND date >= $2 AND date <= $3
ORDER BY date ASC, time ASC`

	var events []models.AttendanceEvent
	if err := r.db.SelectContext(ctx, &events, query, filter.StudentID, filter.DateFrom, filter.DateTo); err != nil {
		return nil, fmt.Errorf("list attendance events: %w", err)
	}
	return events, nil
}
