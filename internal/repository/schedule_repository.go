package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyon-access/parent-api/internal/models"
)

// ScheduleRepository reads the weekly schedule of a grade/section group.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByGroup returns every schedule slot for a group ordered by day and
// start time.
func (r *ScheduleRepository) ListByGroup(ctx context.Context, grade, section string) ([]models.ScheduleEntry, error) {
	const query = `SELECT id, grade, section, day_of_week, start_time, subject, teacher, room, created_at
FROM schedule_entries
WHERE grade = $1 AND section = $2
ORDER BY CASE day_of_week
    WHEN 'MONDAY' THEN 1
    WHEN 'TUESDAY' THEN 2
    WHEN 'WEDNESDAY' THEN 3
    WHEN 'THURSDAY' THEN 4
    WHEN 'FRIDAY' THEN 5
    ELSE 6 END, start_time ASC`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, grade, section); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return entries, nil
}
