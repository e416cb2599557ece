package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler() *FFmpegAssembler {
	return NewFFmpegAssembler(1080, 1920, 30)
}

func filterArg(args []string) string {
	for i, arg := range args {
		if arg == "-vf" {
			return args[i+1]
		}
	}
	return ""
}

func TestAssembleArgs_ScalesToConfiguredGeometry(t *testing.T) {
	a := newTestAssembler()

	args := a.assembleArgs("video.mp4", "audio.mp3", "", "final.mp4")

	assert.Equal(t, []string{"-y", "-i", "video.mp4", "-i", "audio.mp3"}, args[:5])
	filter := filterArg(args)
	assert.Contains(t, filter, "scale=1080:1920")
	assert.Contains(t, filter, "pad=1080:1920")
	assert.NotContains(t, filter, "subtitles=")

	assert.Contains(t, args, "-r")
	assert.Contains(t, args, "30")
	assert.Contains(t, args, "-shortest")
	assert.Equal(t, "final.mp4", args[len(args)-1])
}

func TestAssembleArgs_BurnsInExistingCaptions(t *testing.T) {
	a := newTestAssembler()

	captions := filepath.Join(t.TempDir(), "captions.srt")
	require.NoError(t, os.WriteFile(captions, []byte("1\n"), 0o644))

	args := a.assembleArgs("video.mp4", "audio.mp3", captions, "final.mp4")

	filter := filterArg(args)
	require.NotEmpty(t, filter)
	assert.Contains(t, filter, "subtitles='")
	assert.Contains(t, filter, "force_style=")
}

func TestAssembleArgs_SkipsMissingCaptionsFile(t *testing.T) {
	a := newTestAssembler()

	args := a.assembleArgs("video.mp4", "audio.mp3", "/nonexistent/captions.srt", "final.mp4")
	assert.NotContains(t, filterArg(args), "subtitles=")
}

func TestSubtitlesFilter_EscapesPath(t *testing.T) {
	filter := subtitlesFilter(`C:\videos\captions.srt`)
	assert.Contains(t, filter, `C\:/videos/captions.srt`)
}
