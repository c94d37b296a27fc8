package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jaym/mergesubs/metadata"
	"github.com/jaym/mergesubs/objstore"
	"github.com/jaym/mergesubs/subtitles"
)

const (
	// DefaultPrimaryStream carries Spanish subtitles for the Catalan speech
	// in the release layout this tool was written for.
	DefaultPrimaryStream = 3
	// DefaultFallbackStream carries the full Catalan subtitles.
	DefaultFallbackStream = 4

	primaryKey  = "primary.srt"
	fallbackKey = "fallback.srt"
	mergedKey   = "merged.srt"
)

// StreamSelector picks a stream either by absolute index or, when Language
// is set, by the first subtitle stream carrying that language tag.
type StreamSelector struct {
	Index    int    `mapstructure:"index"`
	Language string `mapstructure:"language"`
}

type Job struct {
	MediaPath string
	// OutputPath defaults to MediaPath with its extension replaced by .srt.
	OutputPath string
	Primary    StreamSelector
	Fallback   StreamSelector
}

type Report struct {
	MediaPath      string          `json:"media_path"`
	OutputPath     string          `json:"output_path"`
	PrimaryStream  int             `json:"primary_stream"`
	FallbackStream int             `json:"fallback_stream"`
	Stats          subtitles.Stats `json:"stats"`
	// MergeID is the catalog id of the run, zero when no catalog is used.
	MergeID int64 `json:"merge_id,omitempty"`
}

// Recorder stores finished merges.
type Recorder interface {
	RecordMerge(ctx context.Context, rec metadata.MergeRecord, cues []subtitles.Cue) (int64, error)
}

type Deps struct {
	Extractor Extractor
	// Prober is only needed for language based stream selection.
	Prober Prober
	// Recorder is optional.
	Recorder Recorder
}

// Unifier extracts a primary and a fallback subtitle track from a media file
// and writes their merge next to it.
type Unifier struct {
	d Deps
}

func NewUnifier(d Deps) *Unifier {
	return &Unifier{d: d}
}

// DefaultOutputPath is the media path with its extension replaced by .srt.
func DefaultOutputPath(mediaPath string) string {
	return strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
}

func (u *Unifier) Run(ctx context.Context, job Job) (*Report, error) {
	info, err := os.Stat(job.MediaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, job.MediaPath)
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrMediaNotFound, job.MediaPath)
	}

	outputPath := job.OutputPath
	if outputPath == "" {
		outputPath = DefaultOutputPath(job.MediaPath)
	}
	if filepath.Clean(outputPath) == filepath.Clean(job.MediaPath) {
		return nil, fmt.Errorf("output path %s would overwrite the media file", outputPath)
	}

	log.Info().Str("media", filepath.Base(job.MediaPath)).Msg("processing")

	primaryStream, fallbackStream, err := u.resolveStreams(job)
	if err != nil {
		return nil, err
	}

	scratch, err := objstore.NewScratch("mergesubs")
	if err != nil {
		return nil, err
	}
	scratchDir := scratch.Dir()
	defer func() {
		if err := scratch.Close(); err != nil {
			log.Warn().Err(err).Str("dir", scratchDir).Msg("failed to remove scratch dir")
		}
	}()

	log.Info().Int("stream", primaryStream).Msg("extracting primary track")
	if err := u.d.Extractor.Extract(ctx, job.MediaPath, primaryStream, scratch.Path(primaryKey)); err != nil {
		return nil, err
	}
	log.Info().Int("stream", fallbackStream).Msg("extracting fallback track")
	if err := u.d.Extractor.Extract(ctx, job.MediaPath, fallbackStream, scratch.Path(fallbackKey)); err != nil {
		return nil, err
	}

	log.Info().Msg("loading and merging subtitles")
	primary, err := readTrack(scratch, primaryKey)
	if err != nil {
		return nil, fmt.Errorf("primary track: %w", err)
	}
	fallback, err := readTrack(scratch, fallbackKey)
	if err != nil {
		return nil, fmt.Errorf("fallback track: %w", err)
	}

	merged, stats := subtitles.MergeWithStats(primary, fallback)
	log.Info().
		Int("primary", stats.Primary).
		Int("fallback", stats.Fallback).
		Int("fallbackKept", stats.FallbackKept).
		Int("overlapping", stats.Overlapping).
		Int("duplicates", stats.Duplicates).
		Int("merged", stats.Merged).
		Msg("merged subtitles")

	log.Info().Str("output", outputPath).Msg("writing merged subtitles")
	if err := subtitles.WriteFile(scratch.Path(mergedKey), merged); err != nil {
		return nil, err
	}
	if err := moveInto(scratch.Path(mergedKey), outputPath); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	report := &Report{
		MediaPath:      job.MediaPath,
		OutputPath:     outputPath,
		PrimaryStream:  primaryStream,
		FallbackStream: fallbackStream,
		Stats:          stats,
	}

	if u.d.Recorder != nil {
		id, err := u.d.Recorder.RecordMerge(ctx, metadata.MergeRecord{
			MediaPath:      job.MediaPath,
			OutputPath:     outputPath,
			PrimaryStream:  primaryStream,
			FallbackStream: fallbackStream,
			PrimaryCount:   stats.Primary,
			FallbackCount:  stats.Fallback,
			FallbackKept:   stats.FallbackKept,
			MergedCount:    stats.Merged,
		}, merged)
		if err != nil {
			return nil, fmt.Errorf("recording merge: %w", err)
		}
		report.MergeID = id
	}

	log.Info().Str("output", outputPath).Msg("done")
	return report, nil
}

func (u *Unifier) resolveStreams(job Job) (int, int, error) {
	primary, fallback := job.Primary.Index, job.Fallback.Index
	if job.Primary.Language == "" && job.Fallback.Language == "" {
		return primary, fallback, nil
	}
	if u.d.Prober == nil {
		return 0, 0, errors.New("language based stream selection requires a prober")
	}

	streams, err := u.d.Prober.Probe(job.MediaPath)
	if err != nil {
		return 0, 0, err
	}
	if job.Primary.Language != "" {
		primary, err = FindLanguageStream(streams, job.Primary.Language, -1)
		if err != nil {
			return 0, 0, fmt.Errorf("primary track: %w", err)
		}
	}
	if job.Fallback.Language != "" {
		fallback, err = FindLanguageStream(streams, job.Fallback.Language, primary)
		if err != nil {
			return 0, 0, fmt.Errorf("fallback track: %w", err)
		}
	}
	log.Debug().Int("primary", primary).Int("fallback", fallback).Msg("resolved streams by language")
	return primary, fallback, nil
}

func readTrack(r objstore.ObjectReader, key string) ([]subtitles.Cue, error) {
	rc, err := r.Open(key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return subtitles.Read(rc)
}
