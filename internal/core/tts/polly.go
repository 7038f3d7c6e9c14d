package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	pollytypes "github.com/aws/aws-sdk-go-v2/service/polly/types"
)

// Provider synthesizes speech audio for a text in the given voice and format.
type Provider interface {
	Synthesize(ctx context.Context, text, voice, format string) ([]byte, error)
}

type Polly struct {
	client *polly.Client
}

func NewPolly(ctx context.Context) (*Polly, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Polly{client: polly.NewFromConfig(cfg)}, nil
}

func (p *Polly) Synthesize(ctx context.Context, text, voice, format string) ([]byte, error) {
	out, err := p.client.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		VoiceId:      pollytypes.VoiceId(voice),
		Engine:       pollytypes.EngineNeural,
		OutputFormat: pollytypes.OutputFormat(format),
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	defer out.AudioStream.Close()
	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	return data, nil
}
