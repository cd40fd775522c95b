package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/keyon-access/parent-api/internal/models"
)

// StudentRepository provides read access to the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetByID returns a student by identifier.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, control_number, full_name, grade, section, shift, guardian_id, active, created_at, updated_at
FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListCohort returns the active students sharing grade and section.
func (r *StudentRepository) ListCohort(ctx context.Context, filter models.CohortFilter) ([]models.Student, error) {
	const query = `SELECT id, control_number, full_name, grade, section, shift, guardian_id, active, created_at, updated_at
FROM students WHERE grade = $1 AND section = $2 AND active = TRUE
ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, filter.Grade, filter.Section); err != nil {
		return nil, fmt.Errorf("list cohort: %w", err)
	}
	return students, nil
}

// ListByGuardian returns the students linked to a guardian account.
func (r *StudentRepository) ListByGuardian(ctx context.Context, guardianID string) ([]models.Student, error) {
	const query = `SELECT id, control_number, full_name, grade, section, shift, guardian_id, active, created_at, updated_at
FROM students WHERE guardian_id = $1 AND active = TRUE
ORDER BY full_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, guardianID); err != nil {
		return nil, fmt.Errorf("list students by guardian: %w", err)
	}
	return students, nil
}
