package videogen

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
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

const (
	defaultLumaBaseURL = "https://api.piapi.ai/api/luma"

	// Submit-then-poll budget: 60 attempts at 10s intervals, 10 minutes max.
	defaultMaxAttempts  = 60
	defaultPollInterval = 10 * time.Second
)

// LumaClient generates video through the Luma Dream Machine API.
type LumaClient struct {
	apiKey       string
	baseURL      string
	maxAttempts  int
	pollInterval time.Duration
	httpClient   *http.Client
}

func NewLumaClient(apiKey string) *LumaClient {
	return &LumaClient{
		apiKey:       apiKey,
		baseURL:      defaultLumaBaseURL,
		maxAttempts:  defaultMaxAttempts,
		pollInterval: defaultPollInterval,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type lumaGenerationRequest struct {
	Prompt       string `json:"prompt"`
	AspectRatio  string `json:"aspect_ratio"`
	ExpandPrompt bool   `json:"expand_prompt"`
}

type lumaGeneration struct {
	ID            string `json:"id"`
	State         string `json:"state"`
	FailureReason string `json:"failure_reason,omitempty"`
	Video         *struct {
		URL string `json:"url"`
	} `json:"video,omitempty"`
}

func (c *LumaClient) Generate(ctx context.Context, prompt, outputPath string) error {
	body, err := json.Marshal(lumaGenerationRequest{
		Prompt:       prompt,
		AspectRatio:  "9:16", // vertical for Shorts
		ExpandPrompt: true,
	})
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "build request", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var submitted lumaGeneration
	if err := c.doJSON(req, &submitted); err != nil {
		return err
	}
	if submitted.ID == "" {
		return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider, "luma returned no task id")
	}
	log.Info("Luma generation %s submitted, polling for completion", submitted.ID)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "generation cancelled", ctx.Err())
		case <-time.After(c.pollInterval):
		}

		statusReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/generations/"+submitted.ID, nil)
		if err != nil {
			return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "build status request", err)
		}
		statusReq.Header.Set("X-API-Key", c.apiKey)

		var status lumaGeneration
		if err := c.doJSON(statusReq, &status); err != nil {
			return err
		}
		log.Debug("Luma generation %s state=%s (%d/%d)", submitted.ID, status.State, attempt+1, c.maxAttempts)

		switch status.State {
		case "completed":
			if status.Video == nil || status.Video.URL == "" {
				return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider, "luma completed without a video url")
			}
			return downloadVideo(ctx, c.httpClient, status.Video.URL, outputPath)
		case "failed":
			return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider,
				fmt.Sprintf("video generation failed: %s", status.FailureReason))
		}
		// Any other state means still running.
	}

	return pipeline.NewError(pipeline.StageVideo, pipeline.ErrTimeout,
		fmt.Sprintf("video generation timed out after %d attempts", c.maxAttempts))
}

func (c *LumaClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "luma request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "read luma response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider,
			fmt.Sprintf("luma returned status %d: %s", resp.StatusCode, string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "decode luma response", err)
	}
	return nil
}

// downloadVideo fetches the finished rendering to outputPath.
func downloadVideo(ctx context.Context, client *http.Client, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrUnknown, "build download request", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrProvider, "download video", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return pipeline.NewError(pipeline.StageVideo, pipeline.ErrProvider,
			fmt.Sprintf("video download returned status %d", resp.StatusCode))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrIO, "create video directory", err)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrIO, "create video file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageVideo, pipeline.ErrIO, "write video file", err)
	}
	return nil
}
