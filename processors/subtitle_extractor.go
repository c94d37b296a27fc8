package processor

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"
	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// Extractor pulls one stream out of a media container into a subtitle file.
// The output format follows the destination extension.
type Extractor interface {
	Extract(ctx context.Context, mediaPath string, streamIndex int, destinationPath string) error
}

type SubtitleExtractorConfig struct {
	// FFmpegPath is the ffmpeg binary, looked up in PATH when relative.
	FFmpegPath string `mapstructure:"path"`
}

type SubtitleExtractor struct {
	ffmpeg string
}

// NewSubtitleExtractor creates a new SubtitleExtractor instance.
func NewSubtitleExtractor(cfg SubtitleExtractorConfig) *SubtitleExtractor {
	ffmpeg := "ffmpeg"
	if cfg.FFmpegPath != "" {
		ffmpeg = cfg.FFmpegPath
	}
	return &SubtitleExtractor{ffmpeg: ffmpeg}
}

// Extract runs ffmpeg -i mediaPath -map 0:streamIndex destinationPath.
func (s *SubtitleExtractor) Extract(ctx context.Context, mediaPath string, streamIndex int, destinationPath string) error {
	args := extractArgs(mediaPath, streamIndex, destinationPath)
	log.Debug().Str("ffmpeg", s.ffmpeg).Strs("args", args).Msg("running ffmpeg")

	cmd := exec.CommandContext(ctx, s.ffmpeg, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return &ExtractionError{
			Stream:       streamIndex,
			Msg:          fmt.Sprintf("error running ffmpeg on stream 0:%d of %s: %v", streamIndex, mediaPath, err),
			Err:          err,
			ffmpegOutput: string(output),
		}
	}
	return nil
}

func extractArgs(mediaPath string, streamIndex int, destinationPath string) []string {
	return ffmpeg_go.Input(mediaPath).
		Get(strconv.Itoa(streamIndex)).
		Output(destinationPath).
		OverWriteOutput().
		GetArgs()
}
