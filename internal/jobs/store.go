package jobs

import (
	"context"
	"time"
)

// Store is the persistence contract the runner drives the pipeline through.
// Every call is a self-contained transaction; checkpoint writes are durable
// before the stage they announce runs.
type Store interface {
	GetVideo(ctx context.Context, id int64) (*Video, error)
	UpdateVideoMetadata(ctx context.Context, id int64, title, description string, tags []string) error
	CompleteVideo(ctx context.Context, id int64, videoPath string, completedAt time.Time) error
	FailVideo(ctx context.Context, id int64, completedAt time.Time) error
	SetVideoUpload(ctx context.Context, id int64, youtubeID, youtubeURL string) error

	// NextPendingJob returns the oldest pending job, or nil when the queue
	// is empty.
	NextPendingJob(ctx context.Context) (*Job, error)
	// ClaimJob transitions a pending job to processing, recording the start
	// time and resetting progress. It reports false if the job was not in
	// pending state.
	ClaimJob(ctx context.Context, id int64, startedAt time.Time) (bool, error)
	UpdateJobProgress(ctx context.Context, id int64, step string, progress int) error
	CompleteJob(ctx context.Context, id int64, completedAt time.Time) error
	FailJob(ctx context.Context, id int64, errorMessage string, completedAt time.Time) error
	CountJobs(ctx context.Context, status Status) (int, error)
}
