package models

import "time"

// ReportFormat enumerates supported report renderings.
type ReportFormat string

const (
	FormatText ReportFormat = "TEXT"
	FormatPDF  ReportFormat = "PDF"
	FormatCSV  ReportFormat = "CSV"
)

// Valid returns true when the format is supported.
func (f ReportFormat) Valid() bool {
	switch f {
	case FormatText, FormatPDF, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportLink references an archived report through a signed download token.
type ReportLink struct {
	Token       string    `json:"token"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MonthlyReport bundles a student's identity with their month-to-date
// attendance and trailing time-on-campus figures.
type MonthlyReport struct {
	Student      *Student             `json:"student"`
	Metrics      *MonthlyMetrics      `json:"metrics"`
	TimeOnCampus *TimeOnCampusSummary `json:"time_on_campus"`
	GeneratedAt  time.Time            `json:"generated_at"`
}
