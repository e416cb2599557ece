package captions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"golang.org/x/text/language"
)

const (
	defaultWhisperBaseURL = "https://api.openai.com/v1"
	whisperModel          = "whisper-1"
)

// WhisperClient transcribes audio through the OpenAI transcriptions API,
// requesting word-level timestamps.
type WhisperClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewWhisperClient(apiKey string) *WhisperClient {
	return &WhisperClient{
		apiKey:  apiKey,
		baseURL: defaultWhisperBaseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Words    []Word `json:"words"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	audio, err := os.Open(audioPath)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrIO, "open audio file", err)
	}
	defer audio.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrUnknown, "build multipart body", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrIO, "read audio file", err)
	}
	_ = writer.WriteField("model", whisperModel)
	_ = writer.WriteField("response_format", "verbose_json")
	_ = writer.WriteField("timestamp_granularities[]", "word")
	if err := writer.Close(); err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrUnknown, "finish multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrProvider, "whisper request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrProvider, "read whisper response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pipeline.NewError(pipeline.StageCaptions, pipeline.ErrProvider,
			fmt.Sprintf("whisper returned status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed whisperResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrProvider, "decode whisper response", err)
	}
	if parsed.Error != nil {
		return nil, pipeline.NewError(pipeline.StageCaptions, pipeline.ErrProvider, "whisper error: "+parsed.Error.Message)
	}
	if len(parsed.Words) == 0 {
		return nil, pipeline.NewError(pipeline.StageCaptions, pipeline.ErrProvider, "whisper returned no word timestamps")
	}

	langTag, err := language.Parse(parsed.Language)
	if err != nil {
		langTag = language.Und
	}
	return &Transcript{
		Text:     parsed.Text,
		Language: langTag,
		Words:    parsed.Words,
	}, nil
}
