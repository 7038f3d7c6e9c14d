package report

import (
	"time"

	"github.com/daignostics/report-backend/pkg/types"
)

const disclaimer = "This report was generated using AI-assisted analysis and should be reviewed by a qualified medical professional."

// Renderer produces the report artifact in one concrete format.
type Renderer interface {
	Render(doctor, patient string, m types.Measurements, analysis string, now time.Time) ([]byte, error)
	Ext() string
	ContentType() string
}
