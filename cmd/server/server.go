package main

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/daignostics/report-backend/internal/config"
	"github.com/daignostics/report-backend/internal/core/dispatch"
	"github.com/daignostics/report-backend/internal/core/inference"
	"github.com/daignostics/report-backend/internal/core/report"
	"github.com/daignostics/report-backend/internal/core/storage"
	"github.com/daignostics/report-backend/internal/core/tts"
	h "github.com/daignostics/report-backend/internal/http"

	"github.com/joho/godotenv"
	"github.com/natefinch/lumberjack"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     28,
		}))
	}

	ctx := context.Background()

	summarizer, err := inference.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, report.SystemPrompt)
	if err != nil {
		log.Fatal(err)
	}
	store, err := storage.NewS3(ctx, cfg.Bucket)
	if err != nil {
		log.Fatal(err)
	}
	speech, err := tts.NewPolly(ctx)
	if err != nil {
		log.Fatal(err)
	}

	var renderer report.Renderer = report.NewPDF()
	if cfg.ReportFormat == "text" {
		renderer = report.NewText()
	}

	d := dispatch.New(summarizer, renderer, store, speech, cfg.Bucket, cfg.Prefix, cfg.Voice)
	r := h.NewRouter(d)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
