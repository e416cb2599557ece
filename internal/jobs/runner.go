package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
	"github.com/google/uuid"
)

const defaultPollInterval = 2 * time.Second

// Progress checkpoints. Each one is written before the stage it announces
// runs, so an interrupted job shows the stage it died in.
const (
	stepContent   = "Generating content metadata"
	stepVoiceover = "Generating voiceover"
	stepVideo     = "Generating video (2-5 min)"
	stepCaptions  = "Generating captions"
	stepAssembly  = "Assembling final video"
)

// QueueStatus is a point-in-time view of the runner for the dashboard.
type QueueStatus struct {
	Running    bool `json:"running"`
	Pending    int  `json:"pending"`
	Processing int  `json:"processing"`
	CurrentJob *Job `json:"current_job,omitempty"`
}

// Runner drains the job queue one job at a time, oldest first. Each job is
// claimed atomically, then run through the six pipeline stages inside a
// single failure boundary: any stage error fails the job and its video with
// the stage's message, and the runner moves on to the next job.
type Runner struct {
	store        Store
	factory      pipeline.Factory
	outputRoot   string
	pollInterval time.Duration

	wake chan struct{}
	stop chan struct{}
	done chan struct{}

	mu      sync.Mutex
	running bool
	current *Job
}

func NewRunner(store Store, factory pipeline.Factory, outputRoot string) *Runner {
	return &Runner{
		store:        store,
		factory:      factory,
		outputRoot:   outputRoot,
		pollInterval: defaultPollInterval,
		wake:         make(chan struct{}, 1),
	}
}

// Start launches the worker goroutine. Starting a running runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.running = true
	go r.loop()
	log.Info("Job runner started")
}

// Stop signals the worker and waits for it to exit. An in-flight job runs to
// its terminal state first; the stop flag is only observed between jobs.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	close(r.stop)
	done := r.done
	r.mu.Unlock()

	<-done

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	log.Info("Job runner stopped")
}

// Wake nudges the worker to poll immediately instead of waiting out the idle
// interval. Safe to call from any goroutine.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Status reports queue depth and the job currently being processed.
func (r *Runner) Status(ctx context.Context) (*QueueStatus, error) {
	pending, err := r.store.CountJobs(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	processing, err := r.store.CountJobs(ctx, StatusProcessing)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	status := &QueueStatus{
		Running:    r.running,
		Pending:    pending,
		Processing: processing,
		CurrentJob: r.current,
	}
	r.mu.Unlock()
	return status, nil
}

func (r *Runner) loop() {
	// The worker's context is never cancelled: shutdown is cooperative, so
	// stage calls and terminal-state writes always run to completion.
	ctx := context.Background()
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		default:
		}

		job, err := r.store.NextPendingJob(ctx)
		if err != nil {
			log.Error("Poll for pending jobs failed: %v", err)
			if !r.idle() {
				return
			}
			continue
		}
		if job == nil {
			if !r.idle() {
				return
			}
			continue
		}

		claimed, err := r.store.ClaimJob(ctx, job.ID, time.Now().UTC())
		if err != nil {
			log.Error("Claim job %d failed: %v", job.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		r.setCurrent(job)
		r.run(ctx, job)
		r.setCurrent(nil)
	}
}

// idle waits for the poll interval or an early wake. It reports false when
// the runner is stopping.
func (r *Runner) idle() bool {
	timer := time.NewTimer(r.pollInterval)
	defer timer.Stop()
	select {
	case <-r.stop:
		return false
	case <-r.wake:
		return true
	case <-timer.C:
		return true
	}
}

func (r *Runner) setCurrent(job *Job) {
	r.mu.Lock()
	r.current = job
	r.mu.Unlock()
}

// run executes the pipeline for one claimed job. Errors from any stage land
// in the single failure path at the bottom.
func (r *Runner) run(ctx context.Context, job *Job) {
	log.Info("Processing job %d (video %d)", job.ID, job.VideoID)

	err := r.process(ctx, job)
	now := time.Now().UTC()
	if err != nil {
		log.Error("Job %d failed: %v", job.ID, err)
		if storeErr := r.store.FailJob(ctx, job.ID, err.Error(), now); storeErr != nil {
			log.Error("Record job %d failure: %v", job.ID, storeErr)
		}
		if storeErr := r.store.FailVideo(ctx, job.VideoID, now); storeErr != nil {
			log.Error("Record video %d failure: %v", job.VideoID, storeErr)
		}
		return
	}

	if storeErr := r.store.CompleteJob(ctx, job.ID, now); storeErr != nil {
		log.Error("Record job %d completion: %v", job.ID, storeErr)
		return
	}
	log.Info("Job %d completed", job.ID)
}

func (r *Runner) process(ctx context.Context, job *Job) error {
	stages, err := r.factory.Build(ctx)
	if err != nil {
		return err
	}

	video, err := r.store.GetVideo(ctx, job.VideoID)
	if err != nil {
		return err
	}
	if video == nil {
		return fmt.Errorf("video %d not found", job.VideoID)
	}

	workDir := filepath.Join(r.outputRoot, uuid.NewString())

	// Stage 1: content metadata.
	if err := r.checkpoint(ctx, job.ID, stepContent, 10); err != nil {
		return err
	}
	metadata, err := stages.Content.Generate(ctx, video.Script)
	if err != nil {
		return err
	}
	title, description := video.Title, video.Description
	if title == "" || title == "Untitled Video" {
		title = metadata.Title
	}
	if description == "" {
		description = metadata.Description
	}
	if err := r.store.UpdateVideoMetadata(ctx, video.ID, title, description, metadata.Tags); err != nil {
		return err
	}

	// Stage 2: voiceover.
	if err := r.checkpoint(ctx, job.ID, stepVoiceover, 25); err != nil {
		return err
	}
	audioPath := filepath.Join(workDir, "voiceover.mp3")
	if err := stages.Speech.Synthesize(ctx, video.Script, audioPath); err != nil {
		return err
	}

	// Stage 3: video generation.
	if err := r.checkpoint(ctx, job.ID, stepVideo, 40); err != nil {
		return err
	}
	rawVideoPath := filepath.Join(workDir, "generated.mp4")
	if err := stages.Video.Generate(ctx, videoPrompt(video.Script), rawVideoPath); err != nil {
		return err
	}

	// Stage 4: captions.
	if err := r.checkpoint(ctx, job.ID, stepCaptions, 70); err != nil {
		return err
	}
	captionsPath := filepath.Join(workDir, "captions.srt")
	if err := stages.Captions.Generate(ctx, audioPath, captionsPath); err != nil {
		return err
	}

	// Stage 5: assembly.
	if err := r.checkpoint(ctx, job.ID, stepAssembly, 85); err != nil {
		return err
	}
	finalPath := filepath.Join(workDir, "final.mp4")
	if err := stages.Assembler.Assemble(ctx, rawVideoPath, audioPath, captionsPath, finalPath); err != nil {
		return err
	}

	// Stage 6: upload, only when the submission asked for it and publishing
	// is configured.
	if video.AutoUpload && stages.Uploader != nil {
		id, url, err := stages.Uploader.Upload(ctx, finalPath, title, description, metadata.Tags)
		if err != nil {
			return err
		}
		if err := r.store.SetVideoUpload(ctx, video.ID, id, url); err != nil {
			return err
		}
	}

	return r.store.CompleteVideo(ctx, video.ID, finalPath, time.Now().UTC())
}

func (r *Runner) checkpoint(ctx context.Context, jobID int64, step string, progress int) error {
	log.Info("Job %d: %s (%d%%)", jobID, step, progress)
	return r.store.UpdateJobProgress(ctx, jobID, step, progress)
}

// videoPrompt derives the generation prompt from the opening of the script.
// Truncation counts runes so multi-byte scripts never yield invalid UTF-8.
func videoPrompt(script string) string {
	excerpt := strings.TrimSpace(script)
	if runes := []rune(excerpt); len(runes) > 100 {
		excerpt = string(runes[:100])
	}
	return "High quality cinematic video: " + excerpt
}
