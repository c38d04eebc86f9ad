package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Page is one titled table of a PDF document.
type Page struct {
	Title string
	Data  Dataset
}

// PDFExporter renders pages of tables, one table per landscape page.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with a heading, optional notes and one page per table.
func (e *PDFExporter) Render(heading string, notes []string, pages []Page) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdf requires at least one page")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	width, _ := pdf.GetPageSize()
	usable := width - 20

	for i, page := range pages {
		if len(page.Data.Headers) == 0 {
			return nil, fmt.Errorf("pdf page %q requires at least one header", page.Title)
		}
		pdf.AddPage()
		if i == 0 && heading != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, strings.ToUpper(heading), "", 1, "C", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for _, note := range notes {
				pdf.CellFormat(0, 5, note, "", 1, "L", false, 0, "")
			}
			pdf.Ln(3)
		}
		if page.Title != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, page.Title, "", 1, "L", false, 0, "")
		}

		colWidth := usable / float64(len(page.Data.Headers))
		pdf.SetFont("Arial", "B", 9)
		for _, header := range page.Data.Headers {
			pdf.CellFormat(colWidth, 7, header, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, row := range page.Data.Rows {
			for _, header := range page.Data.Headers {
				pdf.CellFormat(colWidth, 6, row[header], "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
