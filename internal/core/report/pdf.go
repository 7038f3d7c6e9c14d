package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/daignostics/report-backend/pkg/types"
)

type PDFRenderer struct{}

func NewPDF() PDFRenderer { return PDFRenderer{} }

func (PDFRenderer) Ext() string         { return "pdf" }
func (PDFRenderer) ContentType() string { return "application/pdf" }

func (PDFRenderer) Render(doctor, patient string, m types.Measurements, analysis string, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(227, 30, 36)
	pdf.CellFormat(0, 12, "dAIgnostics", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, "Neurological Analysis Report", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Report Date: "+now.Format("January 2, 2006 at 3:04 PM"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Physician: Dr. "+tr(doctor), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Patient: "+tr(patient), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(227, 30, 36)
	pdf.CellFormat(0, 8, "Measurement Results", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	widths := []float64{76, 38, 25}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(227, 30, 36)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range []string{"Measurement", "Value", "Unit"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range Rows(m) {
		pdf.CellFormat(widths[0], 7, tr(row.Label), "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[1], 7, tr(row.Value), "1", 0, "L", true, 0, "")
		pdf.CellFormat(widths[2], 7, tr(row.Unit), "1", 0, "L", true, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(227, 30, 36)
	pdf.CellFormat(0, 8, "Clinical Interpretation", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 5, tr(analysis), "", "L", false)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 4, disclaimer, "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
