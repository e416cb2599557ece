package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAITTSModel       = "tts-1"
	openAITTSVoice       = "alloy"
)

// OpenAIClient synthesizes speech through the OpenAI audio/speech API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: defaultOpenAIBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type speechRequest struct {
	Model string  `json:"model"`
	Voice string  `json:"voice"`
	Input string  `json:"input"`
	Speed float64 `json:"speed,omitempty"`
}

func (c *OpenAIClient) Synthesize(ctx context.Context, text, outputPath string) error {
	body, err := json.Marshal(speechRequest{
		Model: openAITTSModel,
		Voice: openAITTSVoice,
		Input: text,
		Speed: 1.0,
	})
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrUnknown, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrProvider, "openai tts request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pipeline.NewError(pipeline.StageVoiceover, pipeline.ErrProvider,
			fmt.Sprintf("openai tts returned status %d: %s", resp.StatusCode, string(detail)))
	}

	return writeAudio(resp.Body, outputPath)
}

// writeAudio streams the provider response body to outputPath, creating the
// parent directory when needed.
func writeAudio(body io.Reader, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrIO, "create audio directory", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrIO, "create audio file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, body); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVoiceover, pipeline.ErrIO, "write audio file", err)
	}
	return nil
}
