package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/jobs"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

// ErrEmptyScript rejects submissions whose script is empty or whitespace.
var ErrEmptyScript = errors.New("script must not be empty")

const maxScriptLength = 10000

// ErrScriptTooLong rejects scripts beyond the provider prompt budget.
var ErrScriptTooLong = errors.New("script exceeds maximum length")

// Store is the persistence surface the facade needs.
type Store interface {
	CreateVideo(ctx context.Context, script, title, description string, autoUpload bool) (int64, error)
	GetVideo(ctx context.Context, id int64) (*jobs.Video, error)
	ListVideos(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Video, error)
	CountVideos(ctx context.Context, status jobs.Status) (int, error)

	CreateJob(ctx context.Context, videoID int64) (int64, error)
	GetJob(ctx context.Context, id int64) (*jobs.Job, error)
	ListJobs(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Job, error)
	CountJobs(ctx context.Context, status jobs.Status) (int, error)
}

// Waker nudges the job runner after a submission.
type Waker interface {
	Wake()
}

// Stats summarizes the library and queue for the dashboard.
type Stats struct {
	TotalVideos     int `json:"total_videos"`
	CompletedVideos int `json:"completed_videos"`
	FailedVideos    int `json:"failed_videos"`
	PendingJobs     int `json:"pending_jobs"`
	ProcessingJobs  int `json:"processing_jobs"`
}

// Automation is the facade the HTTP layer and the scheduler submit work
// through. A submission creates a pending video plus a pending job; the
// runner picks the job up asynchronously.
type Automation struct {
	store Store
	waker Waker
}

func NewAutomation(store Store, waker Waker) *Automation {
	return &Automation{store: store, waker: waker}
}

// Submit validates the script and enqueues a generation job. Nothing is
// persisted when validation fails. autoUpload marks the video for publishing
// once it renders; the runner never uploads without it.
func (a *Automation) Submit(ctx context.Context, script, title, description string, autoUpload bool) (videoID, jobID int64, err error) {
	if strings.TrimSpace(script) == "" {
		return 0, 0, ErrEmptyScript
	}
	if len(script) > maxScriptLength {
		return 0, 0, ErrScriptTooLong
	}

	videoID, err = a.store.CreateVideo(ctx, script, strings.TrimSpace(title), strings.TrimSpace(description), autoUpload)
	if err != nil {
		return 0, 0, err
	}
	jobID, err = a.store.CreateJob(ctx, videoID)
	if err != nil {
		return 0, 0, err
	}

	log.Info("Queued video %d (job %d)", videoID, jobID)
	if a.waker != nil {
		a.waker.Wake()
	}
	return videoID, jobID, nil
}

func (a *Automation) GetVideo(ctx context.Context, id int64) (*jobs.Video, error) {
	return a.store.GetVideo(ctx, id)
}

func (a *Automation) ListVideos(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Video, error) {
	return a.store.ListVideos(ctx, status, limit)
}

func (a *Automation) GetJob(ctx context.Context, id int64) (*jobs.Job, error) {
	return a.store.GetJob(ctx, id)
}

func (a *Automation) ListJobs(ctx context.Context, status jobs.Status, limit int) ([]*jobs.Job, error) {
	return a.store.ListJobs(ctx, status, limit)
}

// Stats aggregates per-status counts in one pass for the dashboard header.
func (a *Automation) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	for _, status := range []jobs.Status{jobs.StatusPending, jobs.StatusProcessing, jobs.StatusCompleted, jobs.StatusFailed} {
		count, err := a.store.CountVideos(ctx, status)
		if err != nil {
			return nil, err
		}
		stats.TotalVideos += count
		switch status {
		case jobs.StatusCompleted:
			stats.CompletedVideos = count
		case jobs.StatusFailed:
			stats.FailedVideos = count
		}
	}

	pending, err := a.store.CountJobs(ctx, jobs.StatusPending)
	if err != nil {
		return nil, err
	}
	processing, err := a.store.CountJobs(ctx, jobs.StatusProcessing)
	if err != nil {
		return nil, err
	}
	stats.PendingJobs, stats.ProcessingJobs = pending, processing
	return stats, nil
}
