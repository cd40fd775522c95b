package dto

import "github.com/keyon-access/parent-api/internal/models"

// TimeOnCampusResponse decomposes durations for display alongside the raw
// millisecond values.
type TimeOnCampusResponse struct {
	StudentID   string               `json:"student_id"`
	WindowDays  int                  `json:"window_days"`
	CountedDays int                  `json:"counted_days"`
	TotalMs     int64                `json:"total_ms"`
	Total       models.DurationParts `json:"total"`
	AverageMs   int64                `json:"average_ms"`
	Average     models.DurationParts `json:"average"`
}

// NewTimeOnCampusResponse maps a summary into its response shape.
func NewTimeOnCampusResponse(summary *models.TimeOnCampusSummary) TimeOnCampusResponse {
	return TimeOnCampusResponse{
		StudentID:   summary.StudentID,
		WindowDays:  summary.WindowDays,
		CountedDays: summary.CountedDays,
		TotalMs:     summary.TotalDuration.Milliseconds(),
		Total:       models.Split(summary.TotalDuration),
		AverageMs:   summary.AverageDuration.Milliseconds(),
		Average:     models.Split(summary.AverageDuration),
	}
}
