package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollment-api/internal/dto"
	"github.com/noah-isme/enrollment-api/internal/models"
	appErrors "github.com/noah-isme/enrollment-api/pkg/errors"
	"github.com/noah-isme/enrollment-api/pkg/export"
)

type rosterSource interface {
	ListCourseRoster(ctx context.Context, actor models.Actor, courseID int64) (*dto.CourseRoster, error)
}

// ExportFile is a rendered roster ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders course rosters as downloadable files. Authorization
// is delegated to the roster lookup, so whoever may read the roster may
// export it.
type ExportService struct {
	rosters rosterSource
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(rosters rosterSource, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		rosters: rosters,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

var rosterExportHeaders = []string{"Student ID", "Full Name", "Email", "Enrolled At", "Active"}

// ExportRoster renders the course roster in the requested format, csv or pdf.
func (s *ExportService) ExportRoster(ctx context.Context, actor models.Actor, courseID int64, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		validation := appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
		return nil, appErrors.WithDetails(validation, fmt.Sprintf("format %q, supported: csv, pdf", format))
	}

	roster, err := s.rosters.ListCourseRoster(ctx, actor, courseID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: rosterExportHeaders,
		Rows:    make([]map[string]string, 0, len(roster.Students)),
	}
	for _, student := range roster.Students {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student ID":  strconv.FormatInt(student.ID, 10),
			"Full Name":   student.FullName,
			"Email":       student.Email,
			"Enrolled At": student.EnrolledAt.UTC().Format(time.RFC3339),
			"Active":      strconv.FormatBool(student.IsActive),
		})
	}

	baseName := fmt.Sprintf("course-%d-roster-%s", courseID, time.Now().UTC().Format("20060102"))
	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("%s - Enrolled Students", roster.CourseName))
		if err != nil {
			s.logger.Error("roster pdf render failed", zap.Int64("course_id", courseID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
		}
		return &ExportFile{FileName: baseName + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			s.logger.Error("roster csv render failed", zap.Int64("course_id", courseID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
		}
		return &ExportFile{FileName: baseName + ".csv", ContentType: "text/csv", Content: content}, nil
	}
}
