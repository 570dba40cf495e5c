package config

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig describes where and how the CLI logs.
type LogConfig struct {
	Level      string            `mapstructure:"level"       yaml:"level"`
	TimeFormat string            `mapstructure:"time_format" yaml:"time_format"`
	File       string            `mapstructure:"file"        yaml:"file"`
	NoColor    bool              `mapstructure:"no_color"    yaml:"no_color"`
	JSON       bool              `mapstructure:"json"        yaml:"json"`
	NoTerminal bool              `mapstructure:"no_terminal" yaml:"no_terminal"`
	Rotation   LogRotationConfig `mapstructure:"rotation"    yaml:"rotation"`
}

// LogRotationConfig bounds the log file kept by lumberjack. Sizes are in megabytes, ages in days.
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"    yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"     yaml:"max_age"`
	Compress   bool `mapstructure:"compress"    yaml:"compress"`
}

// NewLogger builds the logger described by cfg. Terminal output goes to out,
// file output through a rotating writer.
func (cfg LogConfig) NewLogger(out io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	var writers []io.Writer

	if !cfg.NoTerminal {
		if cfg.JSON {
			writers = append(writers, out)
		} else {
			writers = append(writers, zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
				w.Out = out
				w.NoColor = cfg.NoColor
				if cfg.TimeFormat != "" {
					w.TimeFormat = cfg.TimeFormat
				}
			}))
		}
	}

	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		})
	}

	if len(writers) == 0 {
		writers = append(writers, out)
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().
		Logger(), nil
}
