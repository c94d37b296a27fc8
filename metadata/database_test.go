package metadata

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaym/mergesubs/subtitles"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalog_RecordAndList(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	cues := []subtitles.Cue{
		{Start: time.Second, End: 2 * time.Second, Text: " Hola "},
		{Start: 3 * time.Second, End: 4 * time.Second, Text: "Adéu"},
	}
	id, err := c.RecordMerge(ctx, MergeRecord{
		MediaPath:      "/media/ep1.mp4",
		OutputPath:     "/media/ep1.srt",
		PrimaryStream:  3,
		FallbackStream: 4,
		PrimaryCount:   1,
		FallbackCount:  2,
		FallbackKept:   1,
		MergedCount:    2,
	}, cues)
	require.NoError(t, err)
	assert.Positive(t, id)

	merges, err := c.ListMerges(ctx, 0)
	require.NoError(t, err)
	require.Len(t, merges, 1)
	assert.Equal(t, id, merges[0].ID)
	assert.Equal(t, "/media/ep1.mp4", merges[0].MediaPath)
	assert.Equal(t, 4, merges[0].FallbackStream)
	assert.Equal(t, 2, merges[0].MergedCount)
	assert.False(t, merges[0].CreatedAt.IsZero())

	stored, err := c.ListCues(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []CueRecord{
		{Seq: 1, Start: 1000, End: 2000, Text: "Hola"},
		{Seq: 2, Start: 3000, End: 4000, Text: "Adéu"},
	}, stored)
}

func TestCatalog_ListCuesUnknownMerge(t *testing.T) {
	c := openTestCatalog(t)

	_, err := c.ListCues(context.Background(), 42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCatalog_Search(t *testing.T) {
	ctx := context.Background()
	c := openTestCatalog(t)

	first, err := c.RecordMerge(ctx, MergeRecord{MediaPath: "a.mp4", OutputPath: "a.srt"}, []subtitles.Cue{
		{Start: 0, End: time.Second, Text: "Bon dia"},
		{Start: time.Second, End: 2 * time.Second, Text: "100% segur"},
	})
	require.NoError(t, err)
	second, err := c.RecordMerge(ctx, MergeRecord{MediaPath: "b.mp4", OutputPath: "b.srt"}, []subtitles.Cue{
		{Start: 0, End: time.Second, Text: "bon vespre"},
	})
	require.NoError(t, err)

	results, err := c.Search(ctx, "bon", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, second, results[0].MergeID)
	assert.Equal(t, "b.mp4", results[0].MediaPath)
	assert.Equal(t, first, results[1].MergeID)

	results, err = c.Search(ctx, "0%", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "100% segur", results[0].Text)

	results, err = c.Search(ctx, "res", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\`, escapeLike(`a%b_c\`))
}

func TestTruncateTerm(t *testing.T) {
	assert.Equal(t, "Hola", truncateTerm("Hola", 8))
	assert.Equal(t, "Ad", truncateTerm("Adéu", 3))
	assert.Equal(t, "Adé", truncateTerm("Adéu", 4))

	long := strings.Repeat("é", maxSearchTermSize)
	got := truncateTerm("a"+long, maxSearchTermSize)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxSearchTermSize-1, len(got))
}

func TestCatalog_SearchLongAccentedQuery(t *testing.T) {
	catalog := openTestCatalog(t)
	ctx := context.Background()

	_, err := catalog.Search(ctx, "a"+strings.Repeat("à", maxSearchTermSize), 10)
	require.NoError(t, err)
}
