package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/captions"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/config"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/contentai"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/media"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/secrets"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/speech"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/videogen"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/youtube"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

// Factory assembles the pipeline stage set from the configured provider
// selection, resolving API keys from the encrypted credential store at build
// time so freshly saved credentials take effect on the next job.
type Factory struct {
	providers config.ProviderConfig
	video     config.VideoConfig
	creds     *secrets.Store
	tokenPath string

	// newUploader is swapped out in tests.
	newUploader func(ctx context.Context, clientID, clientSecret string) (pipeline.Uploader, error)
}

func NewFactory(providers config.ProviderConfig, video config.VideoConfig, creds *secrets.Store, tokenPath string) *Factory {
	f := &Factory{providers: providers, video: video, creds: creds, tokenPath: tokenPath}
	f.newUploader = func(ctx context.Context, clientID, clientSecret string) (pipeline.Uploader, error) {
		return youtube.NewUploader(ctx, clientID, clientSecret, f.tokenPath)
	}
	return f
}

// Build resolves credentials and constructs one provider per stage. A missing
// credential for a selected provider is a configuration error naming the
// service, never echoing any secret value.
func (f *Factory) Build(ctx context.Context) (*pipeline.Stages, error) {
	stages := &pipeline.Stages{
		Assembler: media.NewFFmpegAssembler(f.video.Width, f.video.Height, f.video.FPS),
	}

	content, err := f.buildContent(ctx)
	if err != nil {
		return nil, err
	}
	stages.Content = content

	tts, err := f.buildSpeech(ctx)
	if err != nil {
		return nil, err
	}
	stages.Speech = tts

	video, err := f.buildVideo(ctx)
	if err != nil {
		return nil, err
	}
	stages.Video = video

	// Captions always ride on Whisper, which shares the OpenAI credential.
	openaiKey, err := f.require(ctx, config.ServiceOpenAI, pipeline.StageCaptions)
	if err != nil {
		return nil, err
	}
	stages.Captions = captions.NewGenerator(captions.NewWhisperClient(openaiKey))

	uploader, err := f.buildUploader(ctx)
	if err != nil {
		return nil, err
	}
	stages.Uploader = uploader

	return stages, nil
}

func (f *Factory) buildContent(ctx context.Context) (pipeline.ContentMetadataProvider, error) {
	switch strings.ToLower(f.providers.ContentAI) {
	case config.ServiceOpenAI:
		key, err := f.require(ctx, config.ServiceOpenAI, pipeline.StageContent)
		if err != nil {
			return nil, err
		}
		return contentai.NewOpenAIClient(key), nil
	default:
		key, err := f.require(ctx, config.ServiceGemini, pipeline.StageContent)
		if err != nil {
			return nil, err
		}
		return contentai.NewGeminiClient(key), nil
	}
}

func (f *Factory) buildSpeech(ctx context.Context) (pipeline.SpeechProvider, error) {
	switch strings.ToLower(f.providers.TTS) {
	case config.ServiceElevenLabs:
		key, err := f.require(ctx, config.ServiceElevenLabs, pipeline.StageVoiceover)
		if err != nil {
			return nil, err
		}
		return speech.NewElevenLabsClient(key), nil
	default:
		key, err := f.require(ctx, config.ServiceOpenAI, pipeline.StageVoiceover)
		if err != nil {
			return nil, err
		}
		return speech.NewOpenAIClient(key), nil
	}
}

func (f *Factory) buildVideo(ctx context.Context) (pipeline.VideoProvider, error) {
	switch strings.ToLower(f.providers.Video) {
	case config.ServiceRunway:
		key, err := f.require(ctx, config.ServiceRunway, pipeline.StageVideo)
		if err != nil {
			return nil, err
		}
		return videogen.NewRunwayClient(key), nil
	default:
		key, err := f.require(ctx, config.ServiceLuma, pipeline.StageVideo)
		if err != nil {
			return nil, err
		}
		return videogen.NewLumaClient(key), nil
	}
}

// buildUploader returns nil when YouTube publishing is not configured; the
// pipeline then completes without the upload stage.
func (f *Factory) buildUploader(ctx context.Context) (pipeline.Uploader, error) {
	clientID, ok, err := f.creds.Resolve(ctx, config.ServiceYouTubeClientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	clientSecret, ok, err := f.creds.Resolve(ctx, config.ServiceYouTubeClientSecret)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	uploader, err := f.newUploader(ctx, clientID, clientSecret)
	if err != nil {
		// Publishing stays optional: an unusable token disables uploads
		// instead of blocking the whole pipeline.
		log.Warn("YouTube upload disabled: %v", err)
		return nil, nil
	}
	return uploader, nil
}

func (f *Factory) require(ctx context.Context, service string, stage pipeline.Stage) (string, error) {
	value, ok, err := f.creds.Resolve(ctx, service)
	if err != nil {
		return "", pipeline.NewErrorWithCause(stage, pipeline.ErrConfig,
			fmt.Sprintf("resolve %s credential", service), err)
	}
	if !ok {
		return "", pipeline.NewError(stage, pipeline.ErrConfig,
			fmt.Sprintf("%s credential not configured", service))
	}
	return value, nil
}
