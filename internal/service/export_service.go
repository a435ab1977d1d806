package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cbdms-web/internal/models"
	appErrors "github.com/noah-isme/cbdms-web/pkg/errors"
	"github.com/noah-isme/cbdms-web/pkg/export"
)

type tableRenderer interface {
	ContentType() string
	Extension() string
	Render(table export.Table) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the weekly grid of an editor view as CSV or PDF.
type ExportService struct {
	renderers map[models.ExportFormat]tableRenderer
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the defaults from pkg/export.
func NewExportService(logger *zap.Logger, csv, pdf tableRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		renderers: map[models.ExportFormat]tableRenderer{
			models.ExportCSV:  csv,
			models.ExportPDF:  pdf,
			models.ExportXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ScheduleTable lays the grid out as rows of weekdays and columns of
// periods, with paper labels in the cells.
func ScheduleTable(view models.EditorView) export.Table {
	headers := append([]string{"Day/Hour"}, models.PeriodLabels[:]...)
	table := export.Table{Title: "Time Schedule", Headers: headers}
	if view.Schedule == nil {
		return table
	}
	for _, row := range view.Schedule.Rows() {
		cells := []string{row.Day.Label()}
		for _, value := range row.Periods {
			cells = append(cells, view.SlotLabel(value))
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

// Export renders view in format. Only loaded grids can be exported.
func (s *ExportService) Export(view models.EditorView, format models.ExportFormat) (*ExportFile, error) {
	format = models.ExportFormat(strings.ToLower(strings.TrimSpace(string(format))))
	if format == "" {
		format = models.ExportCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	if view.Schedule == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "schedule is not loaded")
	}

	data, err := renderer.Render(ScheduleTable(view))
	if err != nil {
		s.logger.Error("schedule export failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("time-schedule-%s-%s.%s", view.UserID, s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Data:        data,
	}, nil
}
