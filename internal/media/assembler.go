package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
)

const subtitleStyle = "FontName=Arial Bold,FontSize=24,PrimaryColour=&H00FFFFFF," +
	"OutlineColour=&H00000000,BorderStyle=3,Outline=2,Shadow=1,Alignment=2"

// FFmpegAssembler muxes the generated video, voiceover and optional captions
// into the final deliverable by shelling out to ffmpeg. Output is scaled and
// padded to the configured geometry so every provider's result lands in the
// same portrait frame.
type FFmpegAssembler struct {
	ffmpegCmd string
	width     int
	height    int
	fps       int
}

func NewFFmpegAssembler(width, height, fps int) *FFmpegAssembler {
	return &FFmpegAssembler{ffmpegCmd: "ffmpeg", width: width, height: height, fps: fps}
}

func (a *FFmpegAssembler) Assemble(ctx context.Context, videoPath, audioPath, captionsPath, outputPath string) error {
	cmdPath, err := exec.LookPath(a.ffmpegCmd)
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageAssembly, pipeline.ErrIO, "ffmpeg not found", err)
	}
	for _, input := range []string{videoPath, audioPath} {
		if _, err := os.Stat(input); err != nil {
			return pipeline.NewErrorWithCause(pipeline.StageAssembly, pipeline.ErrIO,
				fmt.Sprintf("missing input file %s", input), err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageAssembly, pipeline.ErrIO, "create output directory", err)
	}

	args := a.assembleArgs(videoPath, audioPath, captionsPath, outputPath)
	log.Info("Assembling final video: ffmpeg %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, cmdPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return pipeline.NewErrorWithCause(pipeline.StageAssembly, pipeline.ErrProvider,
			fmt.Sprintf("ffmpeg failed: %s", tail(string(output), 400)), err)
	}
	return nil
}

func (a *FFmpegAssembler) assembleArgs(videoPath, audioPath, captionsPath, outputPath string) []string {
	args := []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
	}

	filters := []string{
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", a.width, a.height),
		fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", a.width, a.height),
	}
	if captionsPath != "" {
		if _, err := os.Stat(captionsPath); err == nil {
			filters = append(filters, subtitlesFilter(captionsPath))
		}
	}
	args = append(args, "-vf", strings.Join(filters, ","))

	args = append(args,
		"-r", strconv.Itoa(a.fps),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "44100",
		"-shortest",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// subtitlesFilter builds the burn-in filter. The path is escaped the way the
// subtitles filter expects (forward slashes, escaped colons).
func subtitlesFilter(captionsPath string) string {
	escaped := strings.ReplaceAll(captionsPath, `\`, "/")
	escaped = strings.ReplaceAll(escaped, ":", `\:`)
	return fmt.Sprintf("subtitles='%s':force_style='%s'", escaped, subtitleStyle)
}

func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
