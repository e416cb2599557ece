package pipeline

import "context"

// Stage identifies one pipeline step for error attribution and logging.
type Stage string

const (
	StageContent   Stage = "content_metadata"
	StageVoiceover Stage = "voiceover"
	StageVideo     Stage = "video_generation"
	StageCaptions  Stage = "captions"
	StageAssembly  Stage = "assembly"
	StageUpload    Stage = "upload"
)

// Metadata is the structured output of the content metadata stage.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Hashtags    []string `json:"hashtags"`
}

// ContentMetadataProvider turns a script into platform metadata.
type ContentMetadataProvider interface {
	Generate(ctx context.Context, script string) (*Metadata, error)
}

// SpeechProvider renders a script into an audio file at outputPath.
type SpeechProvider interface {
	Synthesize(ctx context.Context, text, outputPath string) error
}

// VideoProvider renders a short text prompt into a video file at outputPath.
// Implementations follow a submit-then-poll protocol with a bounded attempt
// budget and surface exhaustion as a Timeout error.
type VideoProvider interface {
	Generate(ctx context.Context, prompt, outputPath string) error
}

// CaptionProvider produces a time-coded subtitle file from an audio file.
type CaptionProvider interface {
	Generate(ctx context.Context, audioPath, outputPath string) error
}

// Assembler muxes video, audio and an optional subtitle file into one
// deliverable. An empty captionsPath skips subtitle burn-in.
type Assembler interface {
	Assemble(ctx context.Context, videoPath, audioPath, captionsPath, outputPath string) error
}

// Uploader publishes a finished video to the sharing platform.
type Uploader interface {
	Upload(ctx context.Context, videoPath, title, description string, tags []string) (id, url string, err error)
}

// Stages bundles one concrete provider per pipeline step. Uploader may be nil
// when publishing is not configured.
type Stages struct {
	Content   ContentMetadataProvider
	Speech    SpeechProvider
	Video     VideoProvider
	Captions  CaptionProvider
	Assembler Assembler
	Uploader  Uploader
}

// Factory constructs the stage set for one job run, resolving credentials
// from the persistent store. A missing required credential fails construction
// with a Config error.
type Factory interface {
	Build(ctx context.Context) (*Stages, error)
}
