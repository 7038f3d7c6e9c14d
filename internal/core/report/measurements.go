package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/daignostics/report-backend/pkg/types"
)

type label struct {
	Name string
	Unit string
}

var labels = map[string]label{
	"peakCounts":     {"Peak Counts", ""},
	"amplitude":      {"Amplitude", "mV"},
	"auc":            {"Area Under Curve", ""},
	"fwhm":           {"FWHM", "ms"},
	"frequency":      {"Frequency", "Hz"},
	"snr":            {"Signal-to-Noise Ratio", "dB"},
	"skewness":       {"Skewness", ""},
	"kurtosis":       {"Kurtosis", ""},
	"generationDate": {"Test Date", ""},
}

var keyOrder = []string{
	"peakCounts", "amplitude", "auc", "fwhm", "frequency",
	"snr", "skewness", "kurtosis", "generationDate",
}

type Row struct {
	Label string
	Value string
	Unit  string
}

// Rows builds the measurement table rows in a stable order: recognized keys
// first, then any unrecognized keys sorted by name with the raw key as label
// and no unit.
func Rows(m types.Measurements) []Row {
	rows := make([]Row, 0, len(m))
	for _, key := range keyOrder {
		v, ok := m[key]
		if !ok {
			continue
		}
		l := labels[key]
		rows = append(rows, Row{Label: l.Name, Value: FormatValue(key, v), Unit: l.Unit})
	}
	extra := make([]string, 0)
	for key := range m {
		if _, ok := labels[key]; !ok {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		rows = append(rows, Row{Label: key, Value: FormatValue(key, m[key]), Unit: ""})
	}
	return rows
}

// FormatValue renders a measurement for display: numerics to two decimals,
// generationDate timestamps as "YYYY-MM-DD HH:MM", anything else verbatim.
func FormatValue(key string, v any) string {
	if key == "generationDate" {
		if s, ok := v.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return t.Format("2006-01-02 15:04")
			}
			return s
		}
	}
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'f', 2, 64)
	case int:
		return strconv.FormatFloat(float64(n), 'f', 2, 64)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}

// rawValue renders a measurement the way it arrived, for the model prompt.
func rawValue(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	case string:
		return n
	default:
		return fmt.Sprint(v)
	}
}

// FileName derives the artifact name for one request. Granularity is one
// second: two reports for the same patient within the same second collide.
func FileName(patient string, now time.Time, ext string) string {
	return fmt.Sprintf("report_%s_%s.%s",
		strings.ReplaceAll(patient, " ", "_"),
		now.Format("20060102_150405"), ext)
}
