package types

// Measurements maps metric names to numeric values or ISO-8601 timestamp
// strings. It is read-only once decoded.
type Measurements map[string]any

type ReportRequest struct {
	DoctorUsername string       `json:"doctorUsername"`
	PatientName    string       `json:"patientName"`
	Measurements   Measurements `json:"measurements"`
}

type SpeechRequest struct {
	Text string `json:"text"`
}

// Envelope is the invocation response contract: the operation result is
// JSON-encoded into Body, with the transport status and headers alongside.
type Envelope struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type ReportResult struct {
	Success     bool   `json:"success"`
	DownloadURL string `json:"downloadUrl"`
	S3URI       string `json:"s3Uri"`
	FileName    string `json:"fileName"`
	Analysis    string `json:"analysis"`
	Message     string `json:"message"`
}

type SpeechResult struct {
	Success bool   `json:"success"`
	Audio   string `json:"audio"`
	Format  string `json:"format"`
}

type ErrorBody struct {
	Error string `json:"error"`
}
