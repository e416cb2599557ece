package videogen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

const (
	defaultRunwayBaseURL = "https://api.runwayml.com/v1"
	runwayModel          = "gen3a_turbo"
	runwayClipDuration   = 5
)

// RunwayClient generates video through the Runway Gen-3 API.
type RunwayClient struct {
	apiKey       string
	baseURL      string
	maxAttempts  int
	pollInterval time.Duration
	httpClient   *http.Client
}

func NewRunwayClient(apiKey string) *RunwayClient {
	return &RunwayClient{
		apiKey:       apiKey,
		baseURL:      defaultRunwayBaseURL,
		maxAttempts:  defaultMaxAttempts,
		pollInterval: defaultPollInterval,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type runwayGenerationRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
	Ratio    string `json:"ratio"`
}

type runwayTask struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Failure string   `json:"failure,omitempty"`
	Output  []string `json:"output,omitempty"`
}

func (c *RunwayClient) Generate(ctx context.Context, prompt, outputPath string) error {
	body, err := json.Marshal(runwayGenerationRequest{
		Model:    runwayModel,
		Prompt:   prompt,
		Duration: runwayClipDuration,
		Ratio:    "9:16",
	})
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/video/generate", bytes.NewReader(body))
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var submitted runwayTask
	if err := c.doJSON(req, &submitted); err != nil {
		return err
	}
	if submitted.ID == "" {
		return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider, "runway returned no task id")
	}
	log.Info("Runway task %s submitted, polling for completion", submitted.ID)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "generation cancelled", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		statusReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tasks/"+submitted.ID, nil)
		if err != nil {
			return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "build status request", err)
		}
		statusReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		var task runwayTask
		if err := c.doJSON(statusReq, &task); err != nil {
			return err
		}
		log.Debug("Runway task %s status=%s (%d/%d)", submitted.ID, task.Status, attempt+1, c.maxAttempts)

		switch task.Status {
		case "SUCCEEDED":
			if len(task.Output) == 0 {
				return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider, "runway succeeded without output")
			}
			return downloadVideo(ctx, c.httpClient, task.Output[0], outputPath)
		case "FAILED":
			return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider,
				fmt.Sprintf("video generation failed: %s", task.Failure))
		}
	}

	return pipeline.NewError(pipeline.StageVideo, pipeline.ErrTimeout,
		fmt.Sprintf("video generation timed out after %d attempts", c.maxAttempts))
}

func (c *RunwayClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "runway request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "read runway response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider,
			fmt.Sprintf("runway returned status %d: %s", resp.StatusCode, string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "decode runway response", err)
	}
	return nil
}
