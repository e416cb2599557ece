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
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAIModel          = "gpt-4o"
)

// OpenAIClient generates content metadata through the chat-completions API.
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
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Generate(ctx context.Context, script string) (*pipeline.Metadata, error) {
	request := chatRequest{
		Model: openAIModel,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(script)},
		},
		Temperature: 0.7,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrUnknown, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "openai request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "read openai response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, pipeline.NewError(pipeline.StageContent, pipeline.ErrProvider,
			fmt.Sprintf("openai returned status %d: %s", resp.StatusCode, truncate(string(respBody), 200)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "decode openai response", err)
	}
	if parsed.Error != nil {
		return nil, pipeline.NewError(pipeline.StageContent, pipeline.ErrProvider, "openai error: "+parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, pipeline.NewError(pipeline.StageContent, pipeline.ErrProvider, "openai returned no choices")
	}

	metadata, err := parseMetadata(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageContent, pipeline.ErrProvider, "malformed metadata reply", err)
	}
	return metadata, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
