package captions

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Segment boundaries: close a subtitle line at 4 words or 3 seconds of
// speech, whichever comes first.
const (
	maxWordsPerSegment = 4
	maxSegmentDuration = 3 * time.Second
)

// GroupWords folds word timestamps into subtitle lines.
func GroupWords(words []Word) []Line {
	lines := make([]Line, 0)
	var current []Word

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, 0, len(current))
		for _, w := range current {
			texts = append(texts, strings.TrimSpace(w.Word))
		}
		lines = append(lines, Line{
			Index:     len(lines) + 1,
			StartTime: secondsToDuration(current[0].Start),
			EndTime:   secondsToDuration(current[len(current)-1].End),
			Text:      strings.Join(texts, " "),
		})
		current = current[:0]
	}

	for _, word := range words {
		current = append(current, word)
		elapsed := secondsToDuration(word.End - current[0].Start)
		if len(current) >= maxWordsPerSegment || elapsed >= maxSegmentDuration {
			flush()
		}
	}
	flush()

	return lines
}

// WriteSRT renders subtitle lines as an SRT document at path.
func WriteSRT(path string, file *File) error {
	if file == nil || len(file.Lines) == 0 {
		return fmt.Errorf("subtitle data is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create subtitle directory: %w", err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	for _, line := range file.Lines {
		fmt.Fprintf(writer, "%d\n", line.Index)
		fmt.Fprintf(writer, "%s --> %s\n", formatDuration(line.StartTime), formatDuration(line.EndTime))
		fmt.Fprintf(writer, "%s\n\n", line.Text)
	}

	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// formatDuration formats time.Duration to SRT time format
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
