package dispatch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daignostics/report-backend/internal/core/report"
	"github.com/daignostics/report-backend/pkg/types"
)

type fakeSummarizer struct {
	text   string
	err    error
	prompt string
}

func (f *fakeSummarizer) Summarize(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

type fakeStore struct {
	bucket       string
	keys         []string
	contentTypes map[string]string
	data         map[string][]byte
	putErr       error
	signErr      error
}

func newFakeStore(bucket string) *fakeStore {
	return &fakeStore{
		bucket:       bucket,
		contentTypes: map[string]string{},
		data:         map[string][]byte{},
	}
}

func (f *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.keys = append(f.keys, key)
	f.contentTypes[key] = contentType
	f.data[key] = data
	return nil
}

func (f *fakeStore) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s?X-Amz-Expires=%d", f.bucket, key, int(ttl.Seconds())), nil
}

type fakeSpeech struct {
	audio []byte
	err   error
	text  string
	voice string
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, voice, _ string) ([]byte, error) {
	f.text = text
	f.voice = voice
	return f.audio, f.err
}

type failingRenderer struct{}

func (failingRenderer) Render(_, _ string, _ types.Measurements, _ string, _ time.Time) ([]byte, error) {
	return nil, errors.New("layout engine exploded")
}
func (failingRenderer) Ext() string         { return "pdf" }
func (failingRenderer) ContentType() string { return "application/pdf" }

func testClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestDispatcher(sum *fakeSummarizer, st *fakeStore, sp *fakeSpeech) *Dispatcher {
	d := New(sum, report.NewText(), st, sp, "daignostics-reports", "reports/", "Joanna")
	d.Now = testClock(time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC))
	return d
}

func validReportEvent() []byte {
	return []byte(`{
		"doctorUsername": "drjones",
		"patientName": "John Doe",
		"measurements": {
			"peakCounts": 45.0,
			"amplitude": 5.236,
			"generationDate": "2026-01-15T10:30:00.000Z"
		}
	}`)
}

func decodeBody(t *testing.T, env types.Envelope, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(env.Body), out))
}

func TestGenerateReportSuccess(t *testing.T) {
	sum := &fakeSummarizer{text: "Findings consistent with a Bursting pattern."}
	st := newFakeStore("daignostics-reports")
	d := newTestDispatcher(sum, st, &fakeSpeech{})

	env := d.Handle(context.Background(), validReportEvent())
	require.Equal(t, 200, env.StatusCode)

	var res types.ReportResult
	decodeBody(t, env, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "report_John_Doe_20260115_103000.txt", res.FileName)
	assert.Equal(t, "s3://daignostics-reports/reports/report_John_Doe_20260115_103000.txt", res.S3URI)
	assert.Equal(t, "Findings consistent with a Bursting pattern.", res.Analysis)
	assert.Equal(t, "Report generated successfully", res.Message)

	u, err := url.Parse(res.DownloadURL)
	require.NoError(t, err)
	assert.Contains(t, u.Host, "daignostics-reports")
	assert.Contains(t, u.Path, "reports/report_John_Doe_20260115_103000.txt")

	require.Len(t, st.keys, 1)
	assert.Equal(t, "text/plain", st.contentTypes[st.keys[0]])
	assert.Contains(t, string(st.data[st.keys[0]]), "Patient: John Doe")
}

func TestGenerateReportMissingFields(t *testing.T) {
	full := map[string]any{
		"doctorUsername": "drjones",
		"patientName":    "John Doe",
		"measurements":   map[string]any{"amplitude": 5.23},
	}
	fields := []string{"doctorUsername", "patientName", "measurements"}

	// every non-empty combination of absent fields
	for mask := 1; mask < 8; mask++ {
		payload := map[string]any{}
		for k, v := range full {
			payload[k] = v
		}
		name := []string{}
		for i, f := range fields {
			if mask&(1<<i) != 0 {
				delete(payload, f)
				name = append(name, f)
			}
		}
		t.Run("missing_"+strings.Join(name, "_"), func(t *testing.T) {
			d := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("b"), &fakeSpeech{})
			event, err := json.Marshal(payload)
			require.NoError(t, err)

			env := d.Handle(context.Background(), event)
			assert.Equal(t, 400, env.StatusCode)

			var body types.ErrorBody
			decodeBody(t, env, &body)
			assert.Equal(t, "Missing required fields: doctorUsername, patientName, or measurements", body.Error)
		})
	}
}

func TestGenerateReportInferenceFallback(t *testing.T) {
	sum := &fakeSummarizer{err: errors.New("model endpoint timed out")}
	st := newFakeStore("daignostics-reports")
	d := newTestDispatcher(sum, st, &fakeSpeech{})

	env := d.Handle(context.Background(), validReportEvent())
	require.Equal(t, 200, env.StatusCode)

	var res types.ReportResult
	decodeBody(t, env, &res)
	assert.Equal(t, "AI analysis temporarily unavailable. Please review measurements manually.", res.Analysis)
	assert.True(t, res.Success)
}

func TestGenerateReportInferenceFatalWhenPolicyDisablesDegradation(t *testing.T) {
	sum := &fakeSummarizer{err: errors.New("model endpoint timed out")}
	d := newTestDispatcher(sum, newFakeStore("b"), &fakeSpeech{})
	d.Policy = Policy{DegradeInference: false}

	env := d.Handle(context.Background(), validReportEvent())
	assert.Equal(t, 500, env.StatusCode)
}

func TestGenerateReportPromptExcludesGenerationDate(t *testing.T) {
	sum := &fakeSummarizer{text: "ok"}
	d := newTestDispatcher(sum, newFakeStore("b"), &fakeSpeech{})

	env := d.Handle(context.Background(), validReportEvent())
	require.Equal(t, 200, env.StatusCode)

	assert.Contains(t, sum.prompt, "- amplitude: 5.236")
	assert.Contains(t, sum.prompt, "- peakCounts: 45")
	assert.NotContains(t, sum.prompt, "generationDate")
}

func TestGenerateReportRendererFailure(t *testing.T) {
	d := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("b"), &fakeSpeech{})
	d.Renderer = failingRenderer{}

	env := d.Handle(context.Background(), validReportEvent())
	assert.Equal(t, 500, env.StatusCode)

	var body types.ErrorBody
	decodeBody(t, env, &body)
	assert.Contains(t, body.Error, "layout engine exploded")
}

func TestGenerateReportStorageFailures(t *testing.T) {
	t.Run("put", func(t *testing.T) {
		st := newFakeStore("b")
		st.putErr = errors.New("bucket gone")
		d := newTestDispatcher(&fakeSummarizer{text: "ok"}, st, &fakeSpeech{})

		env := d.Handle(context.Background(), validReportEvent())
		assert.Equal(t, 500, env.StatusCode)
	})
	t.Run("presign", func(t *testing.T) {
		st := newFakeStore("b")
		st.signErr = errors.New("signing key rejected")
		d := newTestDispatcher(&fakeSummarizer{text: "ok"}, st, &fakeSpeech{})

		env := d.Handle(context.Background(), validReportEvent())
		assert.Equal(t, 500, env.StatusCode)
	})
}

func TestWrappedBodyNormalization(t *testing.T) {
	inner := string(validReportEvent())
	event, err := json.Marshal(map[string]string{"body": inner})
	require.NoError(t, err)

	d := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("daignostics-reports"), &fakeSpeech{})
	env := d.Handle(context.Background(), event)
	assert.Equal(t, 200, env.StatusCode)
}

func TestMalformedWrappedBodyIsTransportFault(t *testing.T) {
	d := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("b"), &fakeSpeech{})
	env := d.Handle(context.Background(), []byte(`{"body": "{not json"}`))
	assert.Equal(t, 500, env.StatusCode)
}

func TestMalformedEventIsTransportFault(t *testing.T) {
	d := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("b"), &fakeSpeech{})
	env := d.Handle(context.Background(), []byte(`not json at all`))
	assert.Equal(t, 500, env.StatusCode)
}

func TestUnknownActionRoutesToReport(t *testing.T) {
	var payload map[string]any
	require.NoError(t, json.Unmarshal(validReportEvent(), &payload))
	payload["action"] = "definitely_not_an_action"
	event, err := json.Marshal(payload)
	require.NoError(t, err)

	d := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("daignostics-reports"), &fakeSpeech{})
	env := d.Handle(context.Background(), event)

	var res types.ReportResult
	decodeBody(t, env, &res)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.FileName)
}

func TestStorageKeysUniqueAcrossSeconds(t *testing.T) {
	st := newFakeStore("daignostics-reports")
	d := newTestDispatcher(&fakeSummarizer{text: "ok"}, st, &fakeSpeech{})

	base := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	d.Now = testClock(base)
	d.Handle(context.Background(), validReportEvent())
	d.Now = testClock(base.Add(time.Second))
	d.Handle(context.Background(), validReportEvent())

	require.Len(t, st.keys, 2)
	assert.NotEqual(t, st.keys[0], st.keys[1])

	// same patient in the same second collides; second granularity is the
	// de-duplication floor
	d.Handle(context.Background(), validReportEvent())
	require.Len(t, st.keys, 3)
	assert.Equal(t, st.keys[1], st.keys[2])
}

func TestTextToSpeechSuccess(t *testing.T) {
	sp := &fakeSpeech{audio: []byte("mp3-bytes-here")}
	d := newTestDispatcher(&fakeSummarizer{}, newFakeStore("b"), sp)

	env := d.Handle(context.Background(), []byte(`{"action":"text_to_speech","text":"Patient shows a Single pattern."}`))
	require.Equal(t, 200, env.StatusCode)

	var res types.SpeechResult
	decodeBody(t, env, &res)
	assert.True(t, res.Success)
	assert.Equal(t, "mp3", res.Format)

	audio, err := base64.StdEncoding.DecodeString(res.Audio)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes-here"), audio)

	assert.Equal(t, "Patient shows a Single pattern.", sp.text)
	assert.Equal(t, "Joanna", sp.voice)
}

func TestTextToSpeechMissingText(t *testing.T) {
	for name, event := range map[string]string{
		"absent": `{"action":"text_to_speech"}`,
		"empty":  `{"action":"text_to_speech","text":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			d := newTestDispatcher(&fakeSummarizer{}, newFakeStore("b"), &fakeSpeech{})
			env := d.Handle(context.Background(), []byte(event))
			assert.Equal(t, 400, env.StatusCode)

			var body types.ErrorBody
			decodeBody(t, env, &body)
			assert.Equal(t, "Missing required field: text", body.Error)
		})
	}
}

func TestTextToSpeechFailure(t *testing.T) {
	sp := &fakeSpeech{err: errors.New("voice not available")}
	d := newTestDispatcher(&fakeSummarizer{}, newFakeStore("b"), sp)

	env := d.Handle(context.Background(), []byte(`{"action":"text_to_speech","text":"hello"}`))
	assert.Equal(t, 500, env.StatusCode)

	var body types.ErrorBody
	decodeBody(t, env, &body)
	assert.True(t, strings.HasPrefix(body.Error, "TTS generation failed: "), body.Error)
}

func TestHandleActionForcesOperation(t *testing.T) {
	sp := &fakeSpeech{audio: []byte("x")}
	d := newTestDispatcher(&fakeSummarizer{}, newFakeStore("b"), sp)

	// payload says generate_report, route says text_to_speech
	env := d.HandleAction(context.Background(), ActionTextToSpeech, []byte(`{"action":"generate_report","text":"hi"}`))
	require.Equal(t, 200, env.StatusCode)

	var res types.SpeechResult
	decodeBody(t, env, &res)
	assert.Equal(t, "mp3", res.Format)
}

func TestEveryResponseCarriesCORSHeaders(t *testing.T) {
	ttsFail := &fakeSpeech{err: errors.New("down")}
	cases := map[string]types.Envelope{}

	ok := newTestDispatcher(&fakeSummarizer{text: "ok"}, newFakeStore("b"), &fakeSpeech{audio: []byte("a")})
	cases["report_ok"] = ok.Handle(context.Background(), validReportEvent())
	cases["report_400"] = ok.Handle(context.Background(), []byte(`{}`))
	cases["tts_ok"] = ok.Handle(context.Background(), []byte(`{"action":"text_to_speech","text":"hi"}`))
	cases["tts_400"] = ok.Handle(context.Background(), []byte(`{"action":"text_to_speech"}`))
	cases["transport_500"] = ok.Handle(context.Background(), []byte(`{"body":"{"}`))

	bad := newTestDispatcher(&fakeSummarizer{}, newFakeStore("b"), ttsFail)
	cases["tts_500"] = bad.Handle(context.Background(), []byte(`{"action":"text_to_speech","text":"hi"}`))

	for name, env := range cases {
		assert.Equal(t, "application/json", env.Headers["Content-Type"], name)
		assert.Equal(t, "*", env.Headers["Access-Control-Allow-Origin"], name)
		assert.True(t, json.Valid([]byte(env.Body)), name)
	}
}
