package report

import (
	"strings"

	"github.com/daignostics/report-backend/pkg/types"
)

// SystemPrompt frames the model as a lab report writer.
const SystemPrompt = "You are a clinical laboratory specialist report system. Write concise, formal medical reports of Ca²⁺ imaging findings in astrocytes."

const promptContext = `Context: Astrocytes treated with sporadic ALS patient IgG exhibit three Ca²⁺ transient patterns:

• Single: solitary, rapid transient (time_to_peak ≈ 20 s), driven by ER IP₃R release with minimal extracellular Ca²⁺ involvement.
• Bursting: high-frequency repetitive transients (dominant_freq ≈ 0.11 Hz; intervals ≈ 9 s), reflecting cycles of ER release and partial store‐operated Ca²⁺ entry.
• Repetitive: isolated transients (>20 s apart), consistent with episodic IP₃ production and delayed ER refill.

Classification is based on event count, inter‐event interval, and dominant frequency within the first 50 s post‐onset.

Please generate a medical‐style report (findings, interpretation, and brief diagnostic comment). Be concise and give final judgement if the patient has possibility of ALS.

Metrics:
`

// Prompt assembles the summarization prompt: the fixed pattern context
// followed by one "- key: value" line per metric. generationDate is metadata,
// not a metric, and is left out.
func Prompt(m types.Measurements) string {
	var b strings.Builder
	b.WriteString(promptContext)
	for _, key := range keyOrder {
		if key == "generationDate" {
			continue
		}
		if v, ok := m[key]; ok {
			b.WriteString("- " + key + ": " + rawValue(v) + "\n")
		}
	}
	for key, v := range m {
		if _, known := labels[key]; known {
			continue
		}
		b.WriteString("- " + key + ": " + rawValue(v) + "\n")
	}
	return b.String()
}
