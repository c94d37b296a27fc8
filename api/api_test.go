package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaym/mergesubs/metadata"
	"github.com/jaym/mergesubs/subtitles"
)

func newTestHandler(t *testing.T) (http.Handler, int64) {
	t.Helper()
	catalog, err := metadata.OpenCatalog(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })

	id, err := catalog.RecordMerge(context.Background(), metadata.MergeRecord{
		MediaPath:   "/media/ep1.mp4",
		OutputPath:  "/media/ep1.srt",
		MergedCount: 2,
	}, []subtitles.Cue{
		{Start: time.Second, End: 2 * time.Second, Text: "Hola"},
		{Start: 3 * time.Second, End: 4 * time.Second, Text: "Adéu"},
	})
	require.NoError(t, err)

	return NewApiHandler(catalog), id
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestSearchHandler(t *testing.T) {
	h, id := newTestHandler(t)

	rec := get(t, h, "/search?q=hol")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var results []metadata.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].MergeID)
	assert.Equal(t, int64(1000), results[0].Start)

	rec = get(t, h, "/search?q=zzz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/search").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/search?q=a&limit=x").Code)
}

func TestMergesHandler(t *testing.T) {
	h, id := newTestHandler(t)

	rec := get(t, h, "/merges?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)

	var merges []metadata.MergeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merges))
	require.Len(t, merges, 1)
	assert.Equal(t, id, merges[0].ID)
	assert.Equal(t, "/media/ep1.srt", merges[0].OutputPath)
}

func TestCuesHandler(t *testing.T) {
	h, id := newTestHandler(t)

	rec := get(t, h, "/merges/"+strconv.FormatInt(id, 10)+"/cues")
	require.Equal(t, http.StatusOK, rec.Code)

	var cues []metadata.CueRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cues))
	assert.Equal(t, []metadata.CueRecord{
		{Seq: 1, Start: 1000, End: 2000, Text: "Hola"},
		{Seq: 2, Start: 3000, End: 4000, Text: "Adéu"},
	}, cues)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/merges/999/cues").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/merges/abc/cues").Code)
}
