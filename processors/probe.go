package processor

import (
	"encoding/json"
	"fmt"
	"strings"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

// StreamInfo describes one stream of a media container as reported by ffprobe.
type StreamInfo struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Language  string `json:"language,omitempty"`
	Title     string `json:"title,omitempty"`
}

// Prober lists the streams of a media file.
type Prober interface {
	Probe(mediaPath string) ([]StreamInfo, error)
}

type FFProbe struct{}

func (FFProbe) Probe(mediaPath string) ([]StreamInfo, error) {
	probeStr, err := ffmpeg_go.Probe(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("error running ffprobe on %s: %w", mediaPath, err)
	}
	return parseProbe(probeStr)
}

type ffmpegStreamProbe struct {
	Streams []struct {
		Index     int    `json:"index"`
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Tags      struct {
			Language string `json:"language"`
			Title    string `json:"title"`
		} `json:"tags"`
	} `json:"streams"`
}

func parseProbe(probeStr string) ([]StreamInfo, error) {
	var probe ffmpegStreamProbe
	if err := json.Unmarshal([]byte(probeStr), &probe); err != nil {
		return nil, fmt.Errorf("error unmarshalling ffprobe output: %w", err)
	}

	streams := make([]StreamInfo, 0, len(probe.Streams))
	for _, s := range probe.Streams {
		streams = append(streams, StreamInfo{
			Index:     s.Index,
			CodecType: s.CodecType,
			CodecName: s.CodecName,
			Language:  s.Tags.Language,
			Title:     s.Tags.Title,
		})
	}
	return streams, nil
}

// SubtitleStreams keeps only subtitle streams.
func SubtitleStreams(streams []StreamInfo) []StreamInfo {
	var subs []StreamInfo
	for _, s := range streams {
		if s.CodecType == "subtitle" {
			subs = append(subs, s)
		}
	}
	return subs
}

// FindLanguageStream returns the index of the first subtitle stream tagged
// with language, ignoring the stream whose index is skip.
func FindLanguageStream(streams []StreamInfo, language string, skip int) (int, error) {
	for _, s := range SubtitleStreams(streams) {
		if s.Index == skip {
			continue
		}
		if strings.EqualFold(s.Language, language) {
			return s.Index, nil
		}
	}
	return -1, fmt.Errorf("%w: no %q subtitles", ErrStreamNotFound, language)
}
