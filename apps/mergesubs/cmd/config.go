package mergesubs

import (
	processor "github.com/jaym/mergesubs/processors"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

type StreamsConfig struct {
	Primary  processor.StreamSelector `mapstructure:"primary"`
	Fallback processor.StreamSelector `mapstructure:"fallback"`
}

type CatalogConfig struct {
	// Path of the SQLite catalog. Empty disables recording.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// Format is "console" or "json".
	Format string `mapstructure:"format"`
}

type Config struct {
	Server  ServerConfig                      `mapstructure:"server"`
	Streams StreamsConfig                     `mapstructure:"streams"`
	FFmpeg  processor.SubtitleExtractorConfig `mapstructure:"ffmpeg"`
	Catalog CatalogConfig                     `mapstructure:"catalog"`
	Log     LogConfig                         `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", ":8991")
	v.SetDefault("streams.primary.index", processor.DefaultPrimaryStream)
	v.SetDefault("streams.primary.language", "")
	v.SetDefault("streams.fallback.index", processor.DefaultFallbackStream)
	v.SetDefault("streams.fallback.language", "")
	v.SetDefault("ffmpeg.path", "ffmpeg")
	v.SetDefault("catalog.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func LoadConfig() (*Config, error) {
	var config Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}
