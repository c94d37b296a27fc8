package mergesubs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jaym/mergesubs/metadata"
	processor "github.com/jaym/mergesubs/processors"
)

func runMerge(cmd *cobra.Command, media string) error {
	if _, err := os.Stat(media); err != nil {
		return fmt.Errorf("%w: %s", processor.ErrMediaNotFound, media)
	}

	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	absMedia, err := filepath.Abs(media)
	if err != nil {
		return err
	}

	deps := processor.Deps{
		Extractor: processor.NewSubtitleExtractor(cfg.FFmpeg),
		Prober:    processor.FFProbe{},
	}
	if cfg.Catalog.Path != "" {
		catalog, err := metadata.OpenCatalog(cfg.Catalog.Path)
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer catalog.Close()
		deps.Recorder = catalog
	}

	report, err := processor.NewUnifier(deps).Run(cmd.Context(), processor.Job{
		MediaPath:  absMedia,
		OutputPath: output,
		Primary:    cfg.Streams.Primary,
		Fallback:   cfg.Streams.Fallback,
	})
	if err != nil {
		return err
	}

	log.Debug().Interface("report", report).Msg("merge report")
	return nil
}
