package processor

import (
	"errors"
	"fmt"
)

var (
	ErrMediaNotFound  = errors.New("media file not found")
	ErrStreamNotFound = errors.New("subtitle stream not found")
)

// ExtractionError is returned when ffmpeg fails to extract a stream.
type ExtractionError struct {
	Stream       int
	Msg          string
	Err          error
	ffmpegOutput string
}

func (e *ExtractionError) Error() string {
	return e.Msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// VerboseError includes everything ffmpeg printed.
func (e *ExtractionError) VerboseError() string {
	return fmt.Sprintf("FFmpeg Output:\n%s\n\n%s", e.ffmpegOutput, e.Msg)
}
