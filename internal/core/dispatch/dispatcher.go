package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/daignostics/report-backend/internal/core/inference"
	"github.com/daignostics/report-backend/internal/core/report"
	"github.com/daignostics/report-backend/internal/core/storage"
	"github.com/daignostics/report-backend/internal/core/tts"
	"github.com/daignostics/report-backend/pkg/types"
)

const (
	ActionGenerateReport = "generate_report"
	ActionTextToSpeech   = "text_to_speech"

	// FallbackAnalysis replaces the summary when the inference collaborator
	// fails; the report is still produced.
	FallbackAnalysis = "AI analysis temporarily unavailable. Please review measurements manually."

	msgMissingReportFields = "Missing required fields: doctorUsername, patientName, or measurements"
	msgMissingText         = "Missing required field: text"

	presignTTL = time.Hour
)

// Policy names how each collaborator's failure affects a request. Only
// inference is degradable; renderer, storage and speech are hard
// dependencies whose failure fails the whole request.
type Policy struct {
	DegradeInference bool
}

func DefaultPolicy() Policy { return Policy{DegradeInference: true} }

// Dispatcher normalizes an invocation event, routes it by action, validates
// the operation's fields and drives the collaborators. It holds no request
// state; collaborator clients are built once per process and injected.
type Dispatcher struct {
	Summarizer inference.Summarizer
	Renderer   report.Renderer
	Store      storage.Store
	Speech     tts.Provider

	Bucket string
	Prefix string
	Voice  string

	Policy Policy
	Now    func() time.Time
}

func New(s inference.Summarizer, r report.Renderer, st storage.Store, sp tts.Provider, bucket, prefix, voice string) *Dispatcher {
	return &Dispatcher{
		Summarizer: s,
		Renderer:   r,
		Store:      st,
		Speech:     sp,
		Bucket:     bucket,
		Prefix:     prefix,
		Voice:      voice,
		Policy:     DefaultPolicy(),
		Now:        time.Now,
	}
}

// Handle processes one invocation event, routing by its action field.
// Absent or unknown actions run report generation, matching how direct
// invokers have always called this service.
func (d *Dispatcher) Handle(ctx context.Context, event []byte) types.Envelope {
	payload, err := normalize(event)
	if err != nil {
		log.Printf("dispatch: %v", err)
		return errorEnvelope(500, err.Error())
	}
	return d.route(ctx, action(payload), payload)
}

// HandleAction forces the operation regardless of any action field in the
// payload; the per-operation HTTP routes use it.
func (d *Dispatcher) HandleAction(ctx context.Context, act string, event []byte) types.Envelope {
	payload, err := normalize(event)
	if err != nil {
		log.Printf("dispatch: %v", err)
		return errorEnvelope(500, err.Error())
	}
	return d.route(ctx, act, payload)
}

func (d *Dispatcher) route(ctx context.Context, act string, payload map[string]json.RawMessage) types.Envelope {
	switch act {
	case ActionTextToSpeech:
		return d.textToSpeech(ctx, payload)
	default:
		return d.generateReport(ctx, payload)
	}
}

// normalize unwraps the invocation event into the canonical payload. A
// string under "body" is a gateway-wrapped request whose inner JSON is the
// payload; anything else means the event itself is the payload. A body
// string that is not valid JSON is a transport fault, not a validation
// failure.
func normalize(event []byte) (map[string]json.RawMessage, error) {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(event, &outer); err != nil {
		return nil, fmt.Errorf("parse event: %w", err)
	}
	raw, ok := outer["body"]
	if !ok {
		return outer, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err != nil {
		return outer, nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(inner), &payload); err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return payload, nil
}

func action(payload map[string]json.RawMessage) string {
	raw, ok := payload["action"]
	if !ok {
		return ActionGenerateReport
	}
	var act string
	if err := json.Unmarshal(raw, &act); err != nil || act == "" {
		return ActionGenerateReport
	}
	return act
}

func (d *Dispatcher) generateReport(ctx context.Context, payload map[string]json.RawMessage) types.Envelope {
	var req types.ReportRequest
	if err := decode(payload, &req); err != nil {
		log.Printf("dispatch: decode report request: %v", err)
		return errorEnvelope(500, err.Error())
	}
	if req.DoctorUsername == "" || req.PatientName == "" || len(req.Measurements) == 0 {
		return errorEnvelope(400, msgMissingReportFields)
	}

	analysis, err := d.analyze(ctx, req.Measurements)
	if err != nil {
		log.Printf("dispatch: inference: %v", err)
		return errorEnvelope(500, err.Error())
	}

	now := d.Now()
	artifact, err := d.Renderer.Render(req.DoctorUsername, req.PatientName, req.Measurements, analysis, now)
	if err != nil {
		log.Printf("dispatch: render: %v", err)
		return errorEnvelope(500, err.Error())
	}

	fileName := report.FileName(req.PatientName, now, d.Renderer.Ext())
	key := d.Prefix + fileName
	if err := d.Store.Put(ctx, key, artifact, d.Renderer.ContentType()); err != nil {
		log.Printf("dispatch: store: %v", err)
		return errorEnvelope(500, err.Error())
	}
	url, err := d.Store.PresignedURL(ctx, key, presignTTL)
	if err != nil {
		log.Printf("dispatch: presign: %v", err)
		return errorEnvelope(500, err.Error())
	}

	return successEnvelope(types.ReportResult{
		Success:     true,
		DownloadURL: url,
		S3URI:       fmt.Sprintf("s3://%s/%s", d.Bucket, key),
		FileName:    fileName,
		Analysis:    analysis,
		Message:     "Report generated successfully",
	})
}

// analyze applies the degradation policy: an inference failure yields the
// fallback text instead of failing the request, unless the policy says
// otherwise.
func (d *Dispatcher) analyze(ctx context.Context, m types.Measurements) (string, error) {
	text, err := d.Summarizer.Summarize(ctx, report.Prompt(m))
	if err == nil {
		return text, nil
	}
	if d.Policy.DegradeInference {
		log.Printf("dispatch: inference degraded to fallback: %v", err)
		return FallbackAnalysis, nil
	}
	return "", err
}

func (d *Dispatcher) textToSpeech(ctx context.Context, payload map[string]json.RawMessage) types.Envelope {
	var req types.SpeechRequest
	if err := decode(payload, &req); err != nil {
		log.Printf("dispatch: decode speech request: %v", err)
		return errorEnvelope(500, err.Error())
	}
	if req.Text == "" {
		return errorEnvelope(400, msgMissingText)
	}

	audio, err := d.Speech.Synthesize(ctx, req.Text, d.Voice, "mp3")
	if err != nil {
		log.Printf("dispatch: tts: %v", err)
		return errorEnvelope(500, "TTS generation failed: "+err.Error())
	}

	return successEnvelope(types.SpeechResult{
		Success: true,
		Audio:   base64.StdEncoding.EncodeToString(audio),
		Format:  "mp3",
	})
}

func decode(payload map[string]json.RawMessage, out any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func envelopeHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

func successEnvelope(result any) types.Envelope {
	body, err := json.Marshal(result)
	if err != nil {
		return errorEnvelope(500, err.Error())
	}
	return types.Envelope{StatusCode: 200, Headers: envelopeHeaders(), Body: string(body)}
}

func errorEnvelope(status int, msg string) types.Envelope {
	body, _ := json.Marshal(types.ErrorBody{Error: msg})
	return types.Envelope{StatusCode: status, Headers: envelopeHeaders(), Body: string(body)}
}
