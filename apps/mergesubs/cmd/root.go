package mergesubs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	processor "github.com/jaym/mergesubs/processors"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mergesubs media_file",
	Short: "Merge a primary and a fallback subtitle track of a video into one SRT file",
	Long: `mergesubs extracts two subtitle streams from a media file, keeps every cue
of the primary stream, fills the gaps with non-overlapping cues of the fallback
stream and writes the result next to the media file.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMerge(cmd, args[0])
	},
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var exErr *processor.ExtractionError
	if errors.As(err, &exErr) && zerolog.GlobalLevel() <= zerolog.DebugLevel {
		fmt.Fprintln(os.Stderr, "Error:", exErr.VerboseError())
	} else {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return 1
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./mergesubs.yaml or $HOME/.config/mergesubs/mergesubs.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("catalog", "", "path to the SQLite catalog of merges")
	cobra.CheckErr(viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("catalog.path", rootCmd.PersistentFlags().Lookup("catalog")))

	rootCmd.Flags().StringP("output", "o", "", "output file (default: media file with .srt extension)")
	rootCmd.Flags().Int("primary", processor.DefaultPrimaryStream, "absolute index of the primary subtitle stream")
	rootCmd.Flags().Int("fallback", processor.DefaultFallbackStream, "absolute index of the fallback subtitle stream")
	rootCmd.Flags().String("primary-lang", "", "select the primary stream by language tag instead of index")
	rootCmd.Flags().String("fallback-lang", "", "select the fallback stream by language tag instead of index")
	rootCmd.Flags().String("ffmpeg", "ffmpeg", "ffmpeg binary")
	cobra.CheckErr(viper.BindPFlag("streams.primary.index", rootCmd.Flags().Lookup("primary")))
	cobra.CheckErr(viper.BindPFlag("streams.fallback.index", rootCmd.Flags().Lookup("fallback")))
	cobra.CheckErr(viper.BindPFlag("streams.primary.language", rootCmd.Flags().Lookup("primary-lang")))
	cobra.CheckErr(viper.BindPFlag("streams.fallback.language", rootCmd.Flags().Lookup("fallback-lang")))
	cobra.CheckErr(viper.BindPFlag("ffmpeg.path", rootCmd.Flags().Lookup("ffmpeg")))
}

func initConfig() {
	_ = godotenv.Load() // best-effort: load .env if present

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("mergesubs")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/mergesubs")
		}
	}

	viper.SetEnvPrefix("MERGESUBS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("reading config: %w", err))
		}
	}
}

func initLogging() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return nil
}
