package dto

import (
	"encoding/json"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
)

// NotifyRequest captures POST /notifications payload. Either Recipients or a
// grade/section group must be provided.
type NotifyRequest struct {
	Kind       models.NotificationKind `json:"kind"`
	Recipients []string                `json:"recipients,omitempty"`
	Grade      string                  `json:"grade,omitempty"`
	Section    string                  `json:"section,omitempty"`
	Data       json.RawMessage         `json:"data"`
}

// HasGroup reports whether the request targets a grade/section group.
func (r NotifyRequest) HasGroup() bool {
	return r.Grade != "" && r.Section != ""
}

// BuildPayload decodes the raw data document into the typed payload variant
// for the requested kind.
func BuildPayload(kind models.NotificationKind, data json.RawMessage) (models.NotificationPayload, error) {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	decode := func(dest models.NotificationPayload) (models.NotificationPayload, error) {
		if err := json.Unmarshal(data, dest); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification data")
		}
		return dest, nil
	}

	switch kind {
	case models.KindAttendanceRecorded:
		return decode(&models.AttendanceRecordedPayload{})
	case models.KindLate:
		return decode(&models.LatePayload{})
	case models.KindAbsence:
		return decode(&models.AbsencePayload{})
	case models.KindBathroomExit:
		return decode(&models.BathroomExitPayload{})
	case models.KindClassUpcoming:
		return decode(&models.ClassUpcomingPayload{})
	case models.KindStudentAbsent:
		return decode(&models.StudentAbsentPayload{})
	case models.KindMessage:
		return decode(&models.MessagePayload{})
	case models.KindReport:
		return decode(&models.ReportPayload{})
	case models.KindEvent:
		return decode(&models.EventPayload{})
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported notification kind")
	}
}

// MarkAllReadResponse reports how many notifications were flagged.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
