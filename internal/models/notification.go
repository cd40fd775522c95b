package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// NotificationKind is the closed set of notification variants.
type NotificationKind string

const (
	KindAttendanceRecorded NotificationKind = "attendance_recorded"
	KindLate               NotificationKind = "late"
	KindAbsence            NotificationKind = "absence"
	KindBathroomExit       NotificationKind = "bathroom_exit"
	KindClassUpcoming      NotificationKind = "class_upcoming"
	KindStudentAbsent      NotificationKind = "student_absent"
	KindMessage            NotificationKind = "message"
	KindReport             NotificationKind = "report"
	KindEvent              NotificationKind = "event"
)

// Valid returns true when the kind is a supported value.
func (k NotificationKind) Valid() bool {
	switch k {
	case KindAttendanceRecorded, KindLate, KindAbsence, KindBathroomExit,
		KindClassUpcoming, KindStudentAbsent, KindMessage, KindReport, KindEvent:
		return true
	default:
		return false
	}
}

// NotificationPayload is implemented by each notification variant. Render
// produces the user-facing title and body for its kind.
type NotificationPayload interface {
	Kind() NotificationKind
	Render() (title, body string)
}

// AttendanceRecordedPayload confirms an attendance registration.
type AttendanceRecordedPayload struct {
	Subject string `json:"subject"`
}

func (AttendanceRecordedPayload) Kind() NotificationKind { return KindAttendanceRecorded }

func (p AttendanceRecordedPayload) Render() (string, string) {
	return "Attendance recorded", fmt.Sprintf("Attendance in %s has been recorded", p.Subject)
}

// LatePayload flags a late arrival.
type LatePayload struct {
	MinutesLate int `json:"minutes_late"`
}

func (LatePayload) Kind() NotificationKind { return KindLate }

func (p LatePayload) Render() (string, string) {
	return "Late arrival", fmt.Sprintf("Arrived %d minutes late", p.MinutesLate)
}

// AbsencePayload flags a recorded absence.
type AbsencePayload struct {
	Date    string `json:"date"`
	Subject string `json:"subject"`
}

func (AbsencePayload) Kind() NotificationKind { return KindAbsence }

func (p AbsencePayload) Render() (string, string) {
	return "Absence recorded", fmt.Sprintf("Did not attend %s on %s", p.Subject, p.Date)
}

// BathroomExitPayload reports a bathroom permit in progress.
type BathroomExitPayload struct {
	Duration string `json:"duration"`
}

func (BathroomExitPayload) Kind() NotificationKind { return KindBathroomExit }

func (p BathroomExitPayload) Render() (string, string) {
	return "Bathroom exit", fmt.Sprintf("Time out: %s", p.Duration)
}

// ClassUpcomingPayload reminds about an upcoming class.
type ClassUpcomingPayload struct {
	Subject      string `json:"subject"`
	MinutesUntil int    `json:"minutes_until"`
}

func (ClassUpcomingPayload) Kind() NotificationKind { return KindClassUpcoming }

func (p ClassUpcomingPayload) Render() (string, string) {
	return "Upcoming class", fmt.Sprintf("%s starts in %d minutes", p.Subject, p.MinutesUntil)
}

// StudentAbsentPayload informs staff that a student missed a session.
type StudentAbsentPayload struct {
	StudentName string `json:"student_name"`
	Subject     string `json:"subject"`
}

func (StudentAbsentPayload) Kind() NotificationKind { return KindStudentAbsent }

func (p StudentAbsentPayload) Render() (string, string) {
	return "Student absent", fmt.Sprintf("%s did not attend %s", p.StudentName, p.Subject)
}

// MessagePayload carries a direct message preview.
type MessagePayload struct {
	Sender  string `json:"sender"`
	Preview string `json:"preview"`
}

func (MessagePayload) Kind() NotificationKind { return KindMessage }

func (p MessagePayload) Render() (string, string) {
	preview := p.Preview
	if runes := []rune(preview); len(runes) > 100 {
		preview = string(runes[:100])
	}
	return fmt.Sprintf("Message from %s", p.Sender), preview
}

// ReportPayload announces a newly available report.
type ReportPayload struct {
	Title string `json:"title"`
}

func (ReportPayload) Kind() NotificationKind { return KindReport }

func (p ReportPayload) Render() (string, string) {
	return "New report available", p.Title
}

// EventPayload announces a school event.
type EventPayload struct {
	Title string `json:"title"`
	Date  string `json:"date"`
}

func (EventPayload) Kind() NotificationKind { return KindEvent }

func (p EventPayload) Render() (string, string) {
	return p.Title, fmt.Sprintf("Date: %s", p.Date)
}

// Notification represents a persisted notification row.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Kind        NotificationKind `db:"kind" json:"kind"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body"`
	Data        types.JSONText   `db:"data" json:"data,omitempty"`
	SenderID    string           `db:"sender_id" json:"sender_id"`
	SenderName  string           `db:"sender_name" json:"sender_name"`
	Read        bool             `db:"read" json:"read"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// FanoutOutcome records the delivery result for one recipient.
type FanoutOutcome struct {
	RecipientID string `json:"recipient_id"`
	Delivered   bool   `json:"delivered"`
	Error       string `json:"error,omitempty"`
}

// FanoutReport aggregates an all-settled fan-out.
type FanoutReport struct {
	Requested int             `json:"requested"`
	Delivered int             `json:"delivered"`
	Failed    int             `json:"failed"`
	Outcomes  []FanoutOutcome `json:"outcomes"`
}
