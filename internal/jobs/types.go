package jobs

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transitions are permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Video is the record a job renders. Created by the submission facade in
// pending state; the runner fills in metadata and the terminal fields.
type Video struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Script        string     `json:"script"`
	VideoPath     string     `json:"video_path,omitempty"`
	ThumbnailPath string     `json:"thumbnail_path,omitempty"`
	YouTubeID     string     `json:"youtube_id,omitempty"`
	YouTubeURL    string     `json:"youtube_url,omitempty"`
	Status        Status     `json:"status"`
	AutoUpload    bool       `json:"auto_upload"`
	Tags          []string   `json:"tags,omitempty"`
	Duration      int        `json:"duration,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Job tracks one pipeline run over a video. A video may accumulate several
// jobs through resubmission; each job references exactly one video.
type Job struct {
	ID           int64      `json:"id"`
	VideoID      int64      `json:"video_id"`
	Status       Status     `json:"status"`
	Progress     int        `json:"progress"`
	CurrentStep  string     `json:"current_step"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
