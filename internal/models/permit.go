package models

import "time"

// PermitKind distinguishes permit categories.
type PermitKind string

const (
	PermitKindBathroom   PermitKind = "BATHROOM"
	PermitKindEarlyLeave PermitKind = "EARLY_LEAVE"
	PermitKindMedical    PermitKind = "MEDICAL"
	PermitKindOther      PermitKind = "OTHER"
)

// BathroomPermit records a supervised bathroom exit during class.
type BathroomPermit struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   *string   `db:"end_time" json:"end_time,omitempty"`
	Subject   *string   `db:"subject" json:"subject,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SpecialPermit records an authorized deviation from the normal schedule,
// such as an early leave.
type SpecialPermit struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	Date         time.Time  `db:"date" json:"date"`
	Kind         PermitKind `db:"kind" json:"kind"`
	Reason       string     `db:"reason" json:"reason"`
	AuthorizedBy string     `db:"authorized_by" json:"authorized_by"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// SpecialPermitFilter scopes special permit queries.
type SpecialPermitFilter struct {
	StudentID string
	DateFrom  time.Time
	DateTo    time.Time
}
