package mergesubs

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	processor "github.com/jaym/mergesubs/processors"
	"github.com/jaym/mergesubs/subtitles"
)

const fakeFFmpegScript = `#!/bin/sh
out=""
map=""
prev=""
for a in "$@"; do
  case "$a" in
    *.srt) out="$a" ;;
  esac
  if [ "$prev" = "-map" ]; then map="$a"; fi
  prev="$a"
done
case "$map" in
  0:3) printf '1\n00:00:01,000 --> 00:00:02,000\nHola\n\n' > "$out" ;;
  0:4) printf '1\n00:00:01,500 --> 00:00:02,500\nBon dia\n\n2\n00:00:03,000 --> 00:00:04,000\nAdéu\n\n' > "$out" ;;
  *) echo "Stream map '$map' matches no streams." >&2; exit 1 ;;
esac
`

func writeFakeFFmpeg(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg is a shell script")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(fakeFFmpegScript), 0o755))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&bytes.Buffer{})
	return rootCmd.ExecuteContext(context.Background())
}

func TestRootCmd_Merge(t *testing.T) {
	ffmpeg := writeFakeFFmpeg(t)
	dir := t.TempDir()
	media := filepath.Join(dir, "capitol.mp4")
	require.NoError(t, os.WriteFile(media, []byte("video"), 0o644))
	catalog := filepath.Join(dir, "catalog.db")

	err := execute(t, "--ffmpeg", ffmpeg, "--log-level", "error", "--catalog", catalog, media)
	require.NoError(t, err)

	got, err := subtitles.ReadFile(filepath.Join(dir, "capitol.srt"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Hola", got[0].Text)
	assert.Equal(t, "Adéu", got[1].Text)
	assert.FileExists(t, catalog)
}

func TestRootCmd_ExtractionFailure(t *testing.T) {
	ffmpeg := writeFakeFFmpeg(t)
	dir := t.TempDir()
	media := filepath.Join(dir, "capitol.mp4")
	require.NoError(t, os.WriteFile(media, []byte("video"), 0o644))

	err := execute(t, "--ffmpeg", ffmpeg, "--log-level", "error", "--catalog", "", "--fallback", "9", media)

	var exErr *processor.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, 9, exErr.Stream)
	assert.NoFileExists(t, filepath.Join(dir, "capitol.srt"))
}

func TestRootCmd_MissingMedia(t *testing.T) {
	err := execute(t, "--log-level", "error", filepath.Join(t.TempDir(), "missing.mp4"))
	assert.ErrorIs(t, err, processor.ErrMediaNotFound)
}

func TestRootCmd_WrongArgCount(t *testing.T) {
	err := execute(t, "a.mp4", "b.mp4")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "accepts 1 arg(s)"))
}

func TestConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, processor.StreamSelector{Index: 3}, cfg.Streams.Primary)
	assert.Equal(t, processor.StreamSelector{Index: 4}, cfg.Streams.Fallback)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.FFmpegPath)
	assert.Equal(t, ":8991", cfg.Server.Listen)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Catalog.Path)
}

func TestConfigEnvOverride(t *testing.T) {
	t.Setenv("MERGESUBS_STREAMS_FALLBACK_LANGUAGE", "cat")
	t.Setenv("MERGESUBS_STREAMS_PRIMARY_INDEX", "2")

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("MERGESUBS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, 2, cfg.Streams.Primary.Index)
	assert.Equal(t, "cat", cfg.Streams.Fallback.Language)
}
