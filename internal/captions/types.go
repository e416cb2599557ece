package captions

import (
	"context"
	"time"

	"golang.org/x/text/language"
)

// Word is one transcribed word with its spoken interval in seconds.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Transcript is the output of a transcription provider.
type Transcript struct {
	Text     string
	Language language.Tag
	Words    []Word
}

// TranscriptionProvider turns an audio file into a word-level transcript.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}

// Line is one rendered subtitle segment.
type Line struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// File is a complete subtitle document.
type File struct {
	Lines    []Line
	Language language.Tag
	Path     string
}
