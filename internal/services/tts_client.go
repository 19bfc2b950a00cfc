package services

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/yungbote/storyloom-backend/internal/logger"
)

// TTSClient turns narration text into spoken audio.
type TTSClient interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Close() error
}

type googleTTSClient struct {
	log       *logger.Logger
	client    *texttospeech.Client
	voiceName string
	langCode  string
}

type GoogleTTSConfig struct {
	CredentialsFile string
	VoiceName       string
	LanguageCode    string
}

func NewGoogleTTSClient(ctx context.Context, log *logger.Logger, cfg GoogleTTSConfig) (TTSClient, error) {
	if cfg.VoiceName == "" {
		cfg.VoiceName = "en-US-Wavenet-D"
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tts client: %w", err)
	}

	return &googleTTSClient{
		log:       log.With("service", "TTSClient"),
		client:    client,
		voiceName: cfg.VoiceName,
		langCode:  cfg.LanguageCode,
	}, nil
}

func (c *googleTTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("empty narration text")
	}

	resp, err := c.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: c.langCode,
			Name:         c.voiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("tts response had no audio")
	}
	return resp.AudioContent, nil
}

func (c *googleTTSClient) Close() error {
	return c.client.Close()
}
