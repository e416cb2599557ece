package captions

import (
	"context"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

// Generator produces a time-coded SRT file from an audio artifact by
// transcribing it and grouping the word timestamps into segments.
type Generator struct {
	provider TranscriptionProvider
}

func NewGenerator(provider TranscriptionProvider) *Generator {
	return &Generator{provider: provider}
}

func (g *Generator) Generate(ctx context.Context, audioPath, outputPath string) error {
	transcript, err := g.provider.Transcribe(ctx, audioPath)
	if err != nil {
		return err
	}

	lines := GroupWords(transcript.Words)
	log.Info("Grouped %d words into %d subtitle segments", len(transcript.Words), len(lines))

	file := &File{
		Lines:    lines,
		Language: transcript.Language,
		Path:     outputPath,
	}
	if err := WriteSRT(outputPath, file); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageCaptions, pipeline.ErrIO, "write srt file", err)
	}
	return nil
}
