package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io/v1"
	elevenLabsModel          = "eleven_monolingual_v1"
	// Default voice (Rachel).
	elevenLabsVoiceID = "21m00Tcm4TlvDq8ikWAM"
)

// ElevenLabsClient synthesizes speech through the ElevenLabs text-to-speech API.
type ElevenLabsClient struct {
	apiKey     string
	baseURL    string
	voiceID    string
	httpClient *http.Client
}

func NewElevenLabsClient(apiKey string) *ElevenLabsClient {
	return &ElevenLabsClient{
		apiKey:  apiKey,
		baseURL: defaultElevenLabsBaseURL,
		voiceID: elevenLabsVoiceID,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, outputPath string) error {
	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: elevenLabsModel,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrUnknown, "encode request", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrProvider, "elevenlabs request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pipeline.NewError(pipeline.StageVoiceover, pipeline.ErrProvider,
			fmt.Sprintf("elevenlabs returned status %d: %s", resp.StatusCode, string(detail)))
	}

	return writeAudio(resp.Body, outputPath)
}
