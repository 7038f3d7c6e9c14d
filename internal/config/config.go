package config

import "os"

type Config struct {
	Port         string
	GeminiAPIKey string
	GeminiModel  string
	Bucket       string
	Prefix       string
	ReportFormat string
	Voice        string
	LogFile      string
}

func Load() Config {
	return Config{
		Port:         getenv("PORT", "8080"),
		GeminiAPIKey: getenv("GEMINI_API_KEY", ""),
		GeminiModel:  getenv("GEMINI_MODEL", "gemini-2.0-flash"),
		Bucket:       getenv("S3_BUCKET", "daignostics-reports"),
		Prefix:       getenv("S3_PREFIX", "reports/"),
		ReportFormat: getenv("REPORT_FORMAT", "pdf"),
		Voice:        getenv("TTS_VOICE", "Joanna"),
		LogFile:      getenv("LOG_FILE", ""),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
