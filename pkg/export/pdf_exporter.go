package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	labelWidth  = 37.0
	headerH     = 10.0
	rowH        = 14.0
	titleHeight = 12.0
)

// PDFExporter renders a timetable grid on a single landscape page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType of the rendered document.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension of the rendered document.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render creates a PDF document with the table title and a bordered grid.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if table.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, titleHeight, tr(table.Title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	cellWidth := labelWidth
	if len(table.Headers) > 1 {
		cellWidth = (pageWidth - labelWidth) / float64(len(table.Headers)-1)
	}
	width := func(col int) float64 {
		if col == 0 {
			return labelWidth
		}
		return cellWidth
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(15, 23, 42)
	pdf.SetTextColor(241, 245, 249)
	for i, header := range table.Headers {
		pdf.CellFormat(width(i), headerH, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, row := range table.Rows {
		for i, value := range row {
			if i == 0 {
				pdf.SetFont("Arial", "B", 10)
				pdf.SetFillColor(15, 23, 42)
				pdf.SetTextColor(241, 245, 249)
				pdf.CellFormat(width(i), rowH, tr(value), "1", 0, "C", true, 0, "")
				continue
			}
			pdf.SetFont("Arial", "", 10)
			pdf.SetTextColor(15, 23, 42)
			pdf.CellFormat(width(i), rowH, tr(value), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
