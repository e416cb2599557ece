package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store for runner tests.
type memStore struct {
	mu       sync.Mutex
	videos   map[int64]*Video
	jobList  map[int64]*Job
	progress []string
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{videos: map[int64]*Video{}, jobList: map[int64]*Job{}}
}

func (m *memStore) addJob(script string) (videoID, jobID int64) {
	return m.addJobWithUpload(script, false)
}

func (m *memStore) addJobWithUpload(script string, autoUpload bool) (videoID, jobID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	videoID = m.nextID
	m.videos[videoID] = &Video{ID: videoID, Title: "Untitled Video", Script: script, Status: StatusPending, AutoUpload: autoUpload, CreatedAt: time.Now().UTC()}
	m.nextID++
	jobID = m.nextID
	m.jobList[jobID] = &Job{ID: jobID, VideoID: videoID, Status: StatusPending, CreatedAt: time.Now().UTC()}
	return videoID, jobID
}

func (m *memStore) GetVideo(_ context.Context, id int64) (*Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.videos[id]; ok {
		copied := *v
		return &copied, nil
	}
	return nil, nil
}

func (m *memStore) UpdateVideoMetadata(_ context.Context, id int64, title, description string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.videos[id]
	v.Title, v.Description, v.Tags = title, description, tags
	return nil
}

func (m *memStore) CompleteVideo(_ context.Context, id int64, videoPath string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.videos[id]
	v.Status, v.VideoPath, v.CompletedAt = StatusCompleted, videoPath, &completedAt
	return nil
}

func (m *memStore) FailVideo(_ context.Context, id int64, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.videos[id]
	v.Status, v.CompletedAt = StatusFailed, &completedAt
	return nil
}

func (m *memStore) SetVideoUpload(_ context.Context, id int64, youtubeID, youtubeURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.videos[id]
	v.YouTubeID, v.YouTubeURL = youtubeID, youtubeURL
	return nil
}

func (m *memStore) NextPendingJob(_ context.Context) (*Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, j := range m.jobList {
		if j.Status == StatusPending {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	copied := *m.jobList[ids[0]]
	return &copied, nil
}

func (m *memStore) ClaimJob(_ context.Context, id int64, startedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobList[id]
	if j.Status != StatusPending {
		return false, nil
	}
	j.Status, j.StartedAt, j.Progress, j.CurrentStep = StatusProcessing, &startedAt, 0, "Initializing"
	return true, nil
}

func (m *memStore) UpdateJobProgress(_ context.Context, id int64, step string, progress int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobList[id]
	j.CurrentStep, j.Progress = step, progress
	m.progress = append(m.progress, step)
	return nil
}

func (m *memStore) CompleteJob(_ context.Context, id int64, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobList[id]
	j.Status, j.Progress, j.CurrentStep, j.CompletedAt = StatusCompleted, 100, "Completed", &completedAt
	return nil
}

func (m *memStore) FailJob(_ context.Context, id int64, errorMessage string, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobList[id]
	j.Status, j.CurrentStep, j.ErrorMessage, j.CompletedAt = StatusFailed, "Failed", errorMessage, &completedAt
	return nil
}

func (m *memStore) CountJobs(_ context.Context, status Status) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, j := range m.jobList {
		if j.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memStore) job(id int64) Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobList[id]
}

func (m *memStore) video(id int64) Video {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.videos[id]
}

func (m *memStore) steps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.progress...)
}

// Stage stubs.

type stubContent struct{ err error }

func (s *stubContent) Generate(context.Context, string) (*pipeline.Metadata, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &pipeline.Metadata{Title: "Honey Facts", Description: "Why honey never spoils", Tags: []string{"honey"}}, nil
}

type fileWritingStage struct{ err error }

func (s *fileWritingStage) write(path string) error {
	if s.err != nil {
		return s.err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("stub"), 0o644)
}

func (s *fileWritingStage) Synthesize(_ context.Context, _ string, outputPath string) error {
	return s.write(outputPath)
}

func (s *fileWritingStage) Generate(_ context.Context, _ string, outputPath string) error {
	return s.write(outputPath)
}

type stubCaptions struct{ err error }

func (s *stubCaptions) Generate(_ context.Context, _, outputPath string) error {
	if s.err != nil {
		return s.err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("1\n"), 0o644)
}

type stubAssembler struct{ err error }

func (s *stubAssembler) Assemble(_ context.Context, _, _, _, outputPath string) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(outputPath, []byte("mp4"), 0o644)
}

type stubUploader struct{ calls int }

func (s *stubUploader) Upload(context.Context, string, string, string, []string) (string, string, error) {
	s.calls++
	return "yt123", "https://www.youtube.com/watch?v=yt123", nil
}

type stubFactory struct {
	stages *pipeline.Stages
	err    error
}

func (f *stubFactory) Build(context.Context) (*pipeline.Stages, error) {
	return f.stages, f.err
}

func workingStages() *pipeline.Stages {
	return &pipeline.Stages{
		Content:   &stubContent{},
		Speech:    &fileWritingStage{},
		Video:     &fileWritingStage{},
		Captions:  &stubCaptions{},
		Assembler: &stubAssembler{},
	}
}

func startRunner(t *testing.T, store Store, stages *pipeline.Stages) *Runner {
	t.Helper()
	runner := NewRunner(store, &stubFactory{stages: stages}, t.TempDir())
	runner.pollInterval = 10 * time.Millisecond
	runner.Start()
	t.Cleanup(runner.Stop)
	return runner
}

func TestRunner_ProcessesJobToCompletion(t *testing.T) {
	store := newMemStore()
	videoID, jobID := store.addJob("Did you know that honey never spoils?")

	startRunner(t, store, workingStages())

	require.Eventually(t, func() bool {
		return store.job(jobID).Status == StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	job := store.job(jobID)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Completed", job.CurrentStep)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.CompletedAt)

	video := store.video(videoID)
	assert.Equal(t, StatusCompleted, video.Status)
	assert.Equal(t, "Honey Facts", video.Title)
	assert.NotEmpty(t, video.VideoPath)
	assert.FileExists(t, video.VideoPath)

	assert.Equal(t, []string{stepContent, stepVoiceover, stepVideo, stepCaptions, stepAssembly}, store.steps())
}

func TestRunner_StageFailureFailsJobAndVideo(t *testing.T) {
	store := newMemStore()
	videoID, jobID := store.addJob("some script")

	stages := workingStages()
	stages.Video = &fileWritingStage{err: pipeline.NewError(pipeline.StageVideo, pipeline.ErrTimeout, "video generation timed out after 60 attempts")}

	startRunner(t, store, stages)

	require.Eventually(t, func() bool {
		return store.job(jobID).Status == StatusFailed
	}, 5*time.Second, 20*time.Millisecond)

	job := store.job(jobID)
	assert.Contains(t, job.ErrorMessage, "video generation timed out")
	assert.Equal(t, StatusFailed, store.video(videoID).Status)
}

func TestRunner_FactoryErrorFailsJob(t *testing.T) {
	store := newMemStore()
	_, jobID := store.addJob("some script")

	runner := NewRunner(store, &stubFactory{err: pipeline.NewError(pipeline.StageContent, pipeline.ErrConfig, "gemini credential not configured")}, t.TempDir())
	runner.pollInterval = 10 * time.Millisecond
	runner.Start()
	t.Cleanup(runner.Stop)

	require.Eventually(t, func() bool {
		return store.job(jobID).Status == StatusFailed
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, store.job(jobID).ErrorMessage, "credential not configured")
}

func TestRunner_ProcessesJobsOldestFirst(t *testing.T) {
	store := newMemStore()
	_, first := store.addJob("first script")
	_, second := store.addJob("second script")

	startRunner(t, store, workingStages())

	require.Eventually(t, func() bool {
		return store.job(second).Status == StatusCompleted
	}, 10*time.Second, 20*time.Millisecond)

	firstJob, secondJob := store.job(first), store.job(second)
	require.NotNil(t, firstJob.CompletedAt)
	require.NotNil(t, secondJob.StartedAt)
	assert.False(t, secondJob.StartedAt.Before(*firstJob.CompletedAt))
}

func TestRunner_UploadsWhenRequested(t *testing.T) {
	store := newMemStore()
	videoID, jobID := store.addJobWithUpload("a script worth publishing", true)

	uploader := &stubUploader{}
	stages := workingStages()
	stages.Uploader = uploader

	startRunner(t, store, stages)

	require.Eventually(t, func() bool {
		return store.job(jobID).Status == StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	video := store.video(videoID)
	assert.Equal(t, "yt123", video.YouTubeID)
	assert.Equal(t, "https://www.youtube.com/watch?v=yt123", video.YouTubeURL)
	assert.Equal(t, 1, uploader.calls)
}

func TestRunner_SkipsUploadWhenNotRequested(t *testing.T) {
	store := newMemStore()
	videoID, jobID := store.addJob("a script to keep local")

	// Credentials configured, but the submission did not ask to publish.
	uploader := &stubUploader{}
	stages := workingStages()
	stages.Uploader = uploader

	startRunner(t, store, stages)

	require.Eventually(t, func() bool {
		return store.job(jobID).Status == StatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	video := store.video(videoID)
	assert.Empty(t, video.YouTubeID)
	assert.Zero(t, uploader.calls)
}

func TestRunner_Status(t *testing.T) {
	store := newMemStore()
	store.addJob("queued script")

	runner := NewRunner(store, &stubFactory{stages: workingStages()}, t.TempDir())

	status, err := runner.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.Pending)
	assert.Equal(t, 0, status.Processing)

	runner.Start()
	t.Cleanup(runner.Stop)

	require.Eventually(t, func() bool {
		s, err := runner.Status(context.Background())
		return err == nil && s.Running && s.Pending == 0
	}, 5*time.Second, 20*time.Millisecond)
}

// gatedContent blocks inside the content stage until released.
type gatedContent struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedContent) Generate(context.Context, string) (*pipeline.Metadata, error) {
	g.once.Do(func() { close(g.entered) })
	<-g.release
	return &pipeline.Metadata{Title: "Honey Facts"}, nil
}

func TestRunner_StopWaitsForInFlightJob(t *testing.T) {
	store := newMemStore()
	videoID, jobID := store.addJob("a slow render")

	gate := &gatedContent{entered: make(chan struct{}), release: make(chan struct{})}
	stages := workingStages()
	stages.Content = gate

	runner := NewRunner(store, &stubFactory{stages: stages}, t.TempDir())
	runner.pollInterval = 10 * time.Millisecond
	runner.Start()

	select {
	case <-gate.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("job never reached the content stage")
	}

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()

	// Stop must block while the job is still in flight.
	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight job finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(gate.release)

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after the job finished")
	}

	job := store.job(jobID)
	assert.Equal(t, StatusCompleted, job.Status)
	assert.Empty(t, job.ErrorMessage)
	assert.Equal(t, StatusCompleted, store.video(videoID).Status)
}

func TestVideoPrompt_TruncatesOnRuneBoundary(t *testing.T) {
	prompt := videoPrompt(strings.Repeat("蜂", 150))
	assert.True(t, utf8.ValidString(prompt))
	assert.Equal(t, "High quality cinematic video: "+strings.Repeat("蜂", 100), prompt)

	assert.Equal(t, "High quality cinematic video: honey", videoPrompt("  honey  "))
}

func TestRunner_StopIsIdempotent(t *testing.T) {
	runner := NewRunner(newMemStore(), &stubFactory{err: errors.New("unused")}, t.TempDir())
	runner.Start()
	runner.Stop()
	runner.Stop()
}
