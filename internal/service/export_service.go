package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gatortutors/gator-tutors-api/internal/models"
	appErrors "github.com/gatortutors/gator-tutors-api/pkg/errors"
	"github.com/gatortutors/gator-tutors-api/pkg/export"
)

type exportPostRepository interface {
	ListApproved(ctx context.Context) ([]models.TutorPostView, error)
}

// ExportFile is a rendered export ready to stream to the client.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders the approved tutor directory as CSV or PDF for
// admin download.
type ExportService struct {
	repo   exportPostRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportPostRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, csv: export.NewCSVExporter(), pdf: export.NewPDFExporter(), logger: logger}
}

// TutorDirectory renders all approved listings in the requested format.
// Supported formats are "csv" and "pdf".
func (s *ExportService) TutorDirectory(ctx context.Context, format string) (*ExportFile, error) {
	posts, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved listings")
	}

	dataset := buildTutorDataset(posts)
	stamp := time.Now().UTC().Format("20060102")

	switch strings.ToLower(format) {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("tutor-directory-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Tutor Directory")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{
			FileName:    fmt.Sprintf("tutor-directory-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func buildTutorDataset(posts []models.TutorPostView) export.Dataset {
	headers := []string{"Name", "Email", "Subjects", "Hourly Rate", "Approved Since"}
	rows := make([]map[string]string, 0, len(posts))
	for _, post := range posts {
		names := make([]string, 0, len(post.Subjects))
		for _, subject := range post.Subjects {
			names = append(names, subject.Name)
		}
		rows = append(rows, map[string]string{
			"Name":           post.DisplayName,
			"Email":          post.OwnerEmail,
			"Subjects":       strings.Join(names, "; "),
			"Hourly Rate":    strconv.FormatFloat(post.HourlyRate, 'f', 2, 64),
			"Approved Since": post.UpdatedAt.Format("2006-01-02"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
