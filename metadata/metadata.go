package metadata

import (
	"embed"
	"time"
)

//go:embed schema.sql
var SchemaFS embed.FS

type MergeRecord struct {
	ID             int64  `json:"id"`
	MediaPath      string `json:"media_path"`
	OutputPath     string `json:"output_path"`
	PrimaryStream  int    `json:"primary_stream"`
	FallbackStream int    `json:"fallback_stream"`
	// PrimaryCount and FallbackCount are the cue counts of the input tracks.
	PrimaryCount  int       `json:"primary_count"`
	FallbackCount int       `json:"fallback_count"`
	FallbackKept  int       `json:"fallback_kept"`
	MergedCount   int       `json:"merged_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// CueRecord is a merged cue as stored. Timestamps are in milliseconds.
type CueRecord struct {
	Seq   int    `json:"seq"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

type SearchResult struct {
	MergeID   int64  `json:"merge_id"`
	MediaPath string `json:"media_path"`
	Seq       int    `json:"seq"`
	Start     int64  `json:"start"`
	End       int64  `json:"end"`
	Text      string `json:"text"`
}
