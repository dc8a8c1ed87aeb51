package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders tables as single-table A4 documents.
type PDFExporter struct{}

// NewPDFExporter builds a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render lays the table out across as many pages as needed, with the title
// centered above it when present.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(12, 14, 12)
	doc.AddPage()

	if table.Title != "" {
		doc.SetFont("Helvetica", "B", 13)
		doc.CellFormat(0, 9, table.Title, "", 1, "C", false, 0, "")
		doc.Ln(4)
	}

	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	cellWidth := (pageWidth - left - right) / float64(len(table.Columns))

	doc.SetFont("Helvetica", "B", 9)
	for _, col := range table.Columns {
		doc.CellFormat(cellWidth, 7, col, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	for _, row := range table.Rows {
		for _, cell := range row {
			doc.CellFormat(cellWidth, 6, cell, "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := doc.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
