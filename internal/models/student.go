package models

import "time"

// Student represents a student tracked by the access-control system.
type Student struct {
	ID            string    `db:"id" json:"id"`
	ControlNumber string    `db:"control_number" json:"control_number"`
	FullName      string    `db:"full_name" json:"full_name"`
	Grade         string    `db:"grade" json:"grade"`
	Section       string    `db:"section" json:"section"`
	Shift         string    `db:"shift" json:"shift"`
	GuardianID    *string   `db:"guardian_id" json:"guardian_id,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// CohortFilter identifies the comparison population for a student.
type CohortFilter struct {
	Grade   string
	Section string
}
