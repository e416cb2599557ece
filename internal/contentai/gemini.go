package contentai

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
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiModel          = "gemini-2.0-flash"
)

// GeminiClient generates content metadata through the generateContent API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *GeminiClient) Generate(ctx context.Context, script string) (*pipeline.Metadata, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: buildPrompt(script)}}},
		},
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrUnknown, "encode request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, geminiModel, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "gemini request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "read gemini response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pipeline.NewError(pipeline.StageContent, pipeline.ErrProvider,
			fmt.Sprintf("gemini returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "decode gemini response", err)
	}
	if parsed.Error != nil {
		return nil, pipeline.NewError(pipeline.StageContent, pipeline.ErrProvider, "gemini error: "+parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, pipeline.NewError(pipeline.StageContent, pipeline.ErrProvider, "gemini returned no candidates")
	}

	metadata, err := parseMetadata(parsed.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "malformed metadata reply", err)
	}
	return metadata, nil
}
