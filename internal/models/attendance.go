package models

import "time"

// EventKind tags the direction of an access-point crossing.
type EventKind string

const (
	EventKindEntry EventKind = "ENTRY"
	EventKindExit  EventKind = "EXIT"
)

// Valid returns true when the kind is a supported value.
func (k EventKind) Valid() bool {
	switch k {
	case EventKindEntry, EventKindExit:
		return true
	default:
		return false
	}
}

// AttendanceEvent is one raw entry/exit record captured at a campus access
// point. Time is a zero-padded 24h "HH:MM" wall-clock string so that
// lexicographic order matches chronological order within a day.
type AttendanceEvent struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	Kind      EventKind `db:"kind" json:"kind"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceEventFilter scopes event queries to one student and date range.
type AttendanceEventFilter struct {
	StudentID string
	DateFrom  time.Time
	DateTo    time.Time
}

// DayRecord is one calendar day's classification for one student. Derived,
// never persisted.
type DayRecord struct {
	Date            time.Time     `json:"date"`
	FirstEntry      string        `json:"first_entry,omitempty"`
	IsLate          bool          `json:"is_late"`
	PresentDuration time.Duration `json:"present_duration"`
}

// TrendLabel buckets an attendance rate into a qualitative tier.
type TrendLabel string

const (
	TrendExcellent TrendLabel = "excellent"
	TrendGood      TrendLabel = "good"
	TrendLow       TrendLabel = "low"
)

// LateArrival records one late day for the monthly detail list.
type LateArrival struct {
	Date       time.Time `json:"date"`
	FirstEntry string    `json:"first_entry"`
}

// MonthlyMetrics aggregates month-to-date attendance for one student.
type MonthlyMetrics struct {
	StudentID      string        `json:"student_id"`
	WorkingDays    int           `json:"working_days"`
	DaysPresent    int           `json:"days_present"`
	DaysAbsent     int           `json:"days_absent"`
	LateCount      int           `json:"late_count"`
	AttendanceRate int           `json:"attendance_rate"`
	Trend          TrendLabel    `json:"trend"`
	LateDetail     []LateArrival `json:"late_detail"`
}

// TimeOnCampusSummary sums on-campus presence over a trailing window.
type TimeOnCampusSummary struct {
	StudentID       string        `json:"student_id"`
	WindowDays      int           `json:"window_days"`
	TotalDuration   time.Duration `json:"total_duration"`
	CountedDays     int           `json:"counted_days"`
	AverageDuration time.Duration `json:"average_duration"`
}

// DurationParts decomposes a duration for display.
type DurationParts struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Split breaks a duration into whole hours and remaining whole minutes.
func Split(d time.Duration) DurationParts {
	ms := d.Milliseconds()
	return DurationParts{
		Hours:   int(ms / 3_600_000),
		Minutes: int(ms % 3_600_000 / 60_000),
	}
}

// CohortAverages holds arithmetic means across cohort members with valid
// metrics.
type CohortAverages struct {
	DaysPresent float64 `json:"days_present"`
	DaysAbsent  float64 `json:"days_absent"`
	LateCount   float64 `json:"late_count"`
	Rate        float64 `json:"attendance_rate"`
	SampleSize  int     `json:"sample_size"`
}

// GroupComparison relates one student's monthly metrics to the cohort mean.
// Cohort is nil when no cohort member produced valid metrics.
type GroupComparison struct {
	Student      *MonthlyMetrics `json:"student"`
	Cohort       *CohortAverages `json:"cohort,omitempty"`
	AboveAverage bool            `json:"above_average"`
}
