package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/keyon-access/parent-api/internal/models"
	appErrors "github.com/keyon-access/parent-api/pkg/errors"
	"github.com/keyon-access/parent-api/pkg/export"
	"github.com/keyon-access/parent-api/pkg/storage"
)

// metricsProvider supplies the derived attendance figures a report needs.
type metricsProvider interface {
	MonthlyMetrics(ctx context.Context, studentID string) (*models.MonthlyMetrics, error)
	TimeOnCampus(ctx context.Context, studentID string) (*models.TimeOnCampusSummary, error)
}

type studentGetter interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

// ReportService assembles monthly attendance reports and renders them as
// plain text, PDF, or CSV. With a store and signer attached it also archives
// rendered reports and serves them through signed download links.
type ReportService struct {
	metrics  metricsProvider
	students studentGetter
	pdf      *export.PDFExporter
	csv      *export.CSVExporter
	store    *storage.ReportStore
	signer   *storage.LinkSigner
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService constructs the report service. Store and signer may be
// nil, which disables archiving. Now is injectable for tests; pass nil to
// use time.Now.
func NewReportService(metrics metricsProvider, students studentGetter, store *storage.ReportStore, signer *storage.LinkSigner, logger *zap.Logger, now func() time.Time) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ReportService{
		metrics:  metrics,
		students: students,
		pdf:      export.NewPDFExporter(),
		csv:      export.NewCSVExporter(),
		store:    store,
		signer:   signer,
		logger:   logger,
		now:      now,
	}
}

// Build assembles the monthly report for one student.
func (s *ReportService) Build(ctx context.Context, studentID string) (*models.MonthlyReport, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	metrics, err := s.metrics.MonthlyMetrics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	timeOnCampus, err := s.metrics.TimeOnCampus(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &models.MonthlyReport{
		Student:      student,
		Metrics:      metrics,
		TimeOnCampus: timeOnCampus,
		GeneratedAt:  s.now().UTC(),
	}, nil
}

// Render serialises a report into the requested format and returns the
// payload with its content type.
func (s *ReportService) Render(report *models.MonthlyReport, format models.ReportFormat) ([]byte, string, error) {
	switch format {
	case models.FormatText:
		return []byte(s.renderText(report)), "text/plain; charset=utf-8", nil
	case models.FormatPDF:
		payload, err := s.pdf.Render(reportDataset(report), fmt.Sprintf("Monthly attendance - %s", report.Student.FullName))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	case models.FormatCSV:
		payload, err := s.csv.Render(reportDataset(report))
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}

// Archive renders the student's current monthly report, persists it, and
// returns a signed download token for it.
func (s *ReportService) Archive(ctx context.Context, studentID string, format models.ReportFormat) (*models.ReportLink, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.ErrArchiveDisabled
	}

	report, err := s.Build(ctx, studentID)
	if err != nil {
		return nil, err
	}
	payload, contentType, err := s.Render(report, format)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s/%s.%s", studentID, report.GeneratedAt.Format("2006-01"), formatExtension(format))
	if _, err := s.store.Save(name, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive report")
	}

	token, expiresAt, err := s.signer.Generate(studentID, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("report archived",
		zap.String("student_id", studentID),
		zap.String("file", name),
		zap.Time("expires_at", expiresAt),
	)

	return &models.ReportLink{
		Token:       token,
		FileName:    name,
		ContentType: contentType,
		ExpiresAt:   expiresAt,
	}, nil
}

// FetchArchived resolves a signed token to the stored file. The token is the
// only credential; expired or tampered tokens are rejected.
func (s *ReportService) FetchArchived(token string) (*os.File, string, error) {
	if s.store == nil || s.signer == nil {
		return nil, "", appErrors.ErrArchiveDisabled
	}

	_, name, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}

	file, err := s.store.Open(name)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report no longer available")
	}
	return file, contentTypeForName(name), nil
}

func formatExtension(format models.ReportFormat) string {
	switch format {
	case models.FormatPDF:
		return "pdf"
	case models.FormatCSV:
		return "csv"
	default:
		return "txt"
	}
}

func contentTypeForName(name string) string {
	switch filepath.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

func (s *ReportService) renderText(report *models.MonthlyReport) string {
	metrics := report.Metrics
	avg := models.Split(report.TimeOnCampus.AverageDuration)
	total := models.Split(report.TimeOnCampus.TotalDuration)

	var b strings.Builder
	fmt.Fprintf(&b, "Monthly attendance report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Student: %s (%s)\n", report.Student.FullName, report.Student.ControlNumber)
	fmt.Fprintf(&b, "Group: grade %s, section %s, %s shift\n\n", report.Student.Grade, report.Student.Section, strings.ToLower(report.Student.Shift))
	fmt.Fprintf(&b, "Working days this month: %d\n", metrics.WorkingDays)
	fmt.Fprintf(&b, "Days present: %d\n", metrics.DaysPresent)
	fmt.Fprintf(&b, "Days absent: %d\n", metrics.DaysAbsent)
	fmt.Fprintf(&b, "Late arrivals: %d\n", metrics.LateCount)
	fmt.Fprintf(&b, "Attendance rate: %d%% (%s)\n\n", metrics.AttendanceRate, metrics.Trend)
	fmt.Fprintf(&b, "Time on campus (last %d days): %dh %02dm total, %dh %02dm average over %d days\n",
		report.TimeOnCampus.WindowDays, total.Hours, total.Minutes, avg.Hours, avg.Minutes, report.TimeOnCampus.CountedDays)
	if len(metrics.LateDetail) > 0 {
		fmt.Fprintf(&b, "\nLate arrivals detail:\n")
		for _, late := range metrics.LateDetail {
			fmt.Fprintf(&b, "  %s at %s\n", late.Date.Format("2006-01-02"), late.FirstEntry)
		}
	}
	return b.String()
}

func reportDataset(report *models.MonthlyReport) export.Dataset {
	metrics := report.Metrics
	avg := models.Split(report.TimeOnCampus.AverageDuration)
	return export.Dataset{
		Headers: []string{"Metric", "Value"},
		Rows: []map[string]string{
			{"Metric": "Student", "Value": report.Student.FullName},
			{"Metric": "Control number", "Value": report.Student.ControlNumber},
			{"Metric": "Group", "Value": fmt.Sprintf("%s-%s", report.Student.Grade, report.Student.Section)},
			{"Metric": "Working days", "Value": fmt.Sprintf("%d", metrics.WorkingDays)},
			{"Metric": "Days present", "Value": fmt.Sprintf("%d", metrics.DaysPresent)},
			{"Metric": "Days absent", "Value": fmt.Sprintf("%d", metrics.DaysAbsent)},
			{"Metric": "Late arrivals", "Value": fmt.Sprintf("%d", metrics.LateCount)},
			{"Metric": "Attendance rate", "Value": fmt.Sprintf("%d%%", metrics.AttendanceRate)},
			{"Metric": "Trend", "Value": string(metrics.Trend)},
			{"Metric": "Average time on campus", "Value": fmt.Sprintf("%dh %02dm", avg.Hours, avg.Minutes)},
		},
	}
}
