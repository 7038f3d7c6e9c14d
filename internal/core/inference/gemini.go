package inference

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// Summarizer turns a measurement prompt into clinical-summary text.
// Implementations may fail; callers decide whether that is fatal.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

type Gemini struct {
	c      *genai.Client
	model  string
	system string
}

func NewGemini(apiKey, model, systemPrompt string) (*Gemini, error) {
	tr := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2: false,
		MaxIdleConns:      100,
		IdleConnTimeout:   90 * time.Second,
	}
	hc := &http.Client{Transport: tr, Timeout: 30 * time.Second}
	reqTimeout := 15 * time.Second
	cl, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
		HTTPOptions: genai.HTTPOptions{
			APIVersion: "v1",
			Timeout:    &reqTimeout,
		},
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{c: cl, model: model, system: systemPrompt}, nil
}

// Summarize issues a single generation call. No retries: the caller treats
// this collaborator as best-effort and substitutes fallback text on failure.
func (g *Gemini) Summarize(ctx context.Context, prompt string) (string, error) {
	temp := float32(0.7)
	maxTok := int32(1000)

	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: maxTok,
	}
	if g.system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: g.system}}}
	}

	parts := []*genai.Part{{Text: prompt}}
	resp, err := g.c.Models.GenerateContent(ctx, g.model, []*genai.Content{{Parts: parts}}, cfg)
	if err != nil {
		return "", err
	}
	if t := resp.Text(); t != "" {
		return t, nil
	}
	return "", errors.New("empty response")
}
