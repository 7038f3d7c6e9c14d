package report

import (
	"strings"
	"time"

	"github.com/daignostics/report-backend/pkg/types"
)

const band = "========================================"
const rule = "----------------------------------------"

// TextRenderer writes the report as plain text, for clients that only need
// the content without PDF layout.
type TextRenderer struct{}

func NewText() TextRenderer { return TextRenderer{} }

func (TextRenderer) Ext() string         { return "txt" }
func (TextRenderer) ContentType() string { return "text/plain" }

func (TextRenderer) Render(doctor, patient string, m types.Measurements, analysis string, now time.Time) ([]byte, error) {
	var b strings.Builder
	b.WriteString(band + "\n")
	b.WriteString("dAIgnostics - Neurological Analysis Report\n")
	b.WriteString(band + "\n\n")
	b.WriteString("Report Date: " + now.Format("January 2, 2006 at 3:04 PM") + "\n")
	b.WriteString("Physician: Dr. " + doctor + "\n")
	b.WriteString("Patient: " + patient + "\n\n")
	b.WriteString(rule + "\n")
	b.WriteString("Measurement Results\n")
	b.WriteString(rule + "\n")
	for _, row := range Rows(m) {
		b.WriteString(row.Label + ": " + row.Value)
		if row.Unit != "" {
			b.WriteString(" " + row.Unit)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + rule + "\n")
	b.WriteString("Clinical Interpretation\n")
	b.WriteString(rule + "\n")
	b.WriteString(analysis + "\n\n")
	b.WriteString(band + "\n")
	b.WriteString(disclaimer + "\n")
	b.WriteString(band + "\n")
	return []byte(b.String()), nil
}
