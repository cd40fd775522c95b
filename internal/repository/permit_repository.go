package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/keyon-access/parent-api/internal/models"
)

// PermitRepository reads bathroom and special permits.
type PermitRepository struct {
	db *sqlx.DB
}

// NewPermitRepository constructs the repository.
func NewPermitRepository(db *sqlx.DB) *PermitRepository {
	return &PermitRepository{db: db}
}

// ListBathroom returns the student's bathroom permits for one date, most
// recent first.
func (r *PermitRepository) ListBathroom(ctx context.Context, studentID string, date time.Time) ([]models.BathroomPermit, error) {
	const query = `SELECT id, student_id, date, start_time, end_time, subject, created_at
FROM bathroom_permits
WHERE student_id = $1 AND date = $2
ORDER BY start_time DESC`
	var permits []models.BathroomPermit
	if err := r.db.SelectContext(ctx, &permits, query, studentID, date); err != nil {
		return nil, fmt.Errorf("list bathroom permits: %w", err)
	}
	return permits, nil
}

// ListSpecial returns special permits within the inclusive date range.
func (r *PermitRepository) ListSpecial(ctx context.Context, filter models.SpecialPermitFilter) ([]models.SpecialPermit, error) {
	const query = `SELECT id, student_id, date, kind, reason, authorized_by, created_at
FROM special_permits
WHERE student_id = $1 AND date >= $2 AND date <= $3
ORDER BY date DESC`
	var permits []models.SpecialPermit
	if err := r.db.SelectContext(ctx, &permits, query, filter.StudentID, filter.DateFrom, filter.DateTo); err != nil {
		return nil, fmt.Errorf("list special permits: %w", err)
	}
	return permits, nil
}
