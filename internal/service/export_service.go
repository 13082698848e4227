package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/qpflow-api/internal/models"
	"github.com/noah-isme/qpflow-api/internal/repository"
)

// ExportService renders admin reports as Excel workbooks. Content comes back
// as a buffer plus a suggested filename; the handler sets the response
// headers and streams it.
type ExportService interface {
	ExportSubmissions(ctx context.Context) (*bytes.Buffer, string, error)
	ExportAuditLog(ctx context.Context, limit int) (*bytes.Buffer, string, error)
}

type exportService struct {
	submissions repository.SubmissionRepository
	auditLogs   repository.AuditLogRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewExportService constructs the export service.
func NewExportService(submissions repository.SubmissionRepository, auditLogs repository.AuditLogRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		submissions: submissions,
		auditLogs:   auditLogs,
		logger:      logger.With().Str("component", "export_service").Logger(),
		now:         time.Now,
	}
}

func (s *exportService) ExportSubmissions(ctx context.Context) (*bytes.Buffer, string, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Course", "Owner", "Type of Study", "Status", "Submitted At", "Approved At", "Endorsed At", "Rejected At", "Rejection Reason", "Documents"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return nil, "", err
	}

	for i, submission := range submissions {
		row := i + 2
		values := []interface{}{
			submission.ID,
			submission.Course.Code,
			submission.Owner.Name,
			submission.TypeOfStudy,
			submission.Status,
			formatTime(submission.SubmittedAt),
			formatTime(submission.CoordinatorApprovedAt),
			formatTime(submission.DeanEndorsedAt),
			formatTime(submission.RejectedAt),
			submission.RejectionReason,
			countDocumentsWithFiles(submission.Documents),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return nil, "", err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error().Err(err).Msg("failed to write submissions workbook")
		return nil, "", err
	}

	filename := fmt.Sprintf("submissions_%s.xlsx", s.now().Format("20060102_150405"))
	return buf, filename, nil
}

func (s *exportService) ExportAuditLog(ctx context.Context, limit int) (*bytes.Buffer, string, error) {
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}

	entries, err := s.auditLogs.List(ctx, repository.AuditLogFilter{Limit: limit})
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Audit Log"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Actor ID", "Action", "Entity Type", "Entity ID", "Details", "Recorded At"}
	if err := writeHeaderRow(f, sheet, headers); err != nil {
		return nil, "", err
	}

	for i, entry := range entries {
		row := i + 2
		values := []interface{}{
			entry.ID,
			uintPointerValue(entry.ActorID),
			entry.Action,
			entry.EntityType,
			uintPointerValue(entry.EntityID),
			formatDetails(entry),
			entry.CreatedAt.Format(time.RFC3339),
		}
		if err := writeRow(f, sheet, row, values); err != nil {
			return nil, "", err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error().Err(err).Msg("failed to write audit workbook")
		return nil, "", err
	}

	filename := fmt.Sprintf("audit_log_%s.xlsx", s.now().Format("20060102_150405"))
	return buf, filename, nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) error {
	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatDetails(entry models.AuditLog) string {
	if len(entry.Details) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", map[string]interface{}(entry.Details))
}

func countDocumentsWithFiles(documents []models.SubmissionDocument) int {
	count := 0
	for _, document := range documents {
		if document.HasFile() {
			count++
		}
	}
	return count
}

func uintPointerValue(v *uint) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
