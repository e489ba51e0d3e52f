package main

import (
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	LogLevelKey = "log-level"
	DevKey      = "dev"
)

func addLogFlags(flags *pflag.FlagSet) {
	flags.String(LogLevelKey, "warn", "Log level (debug, info, warn, error)")
	flags.Bool(DevKey, false, "Human-readable development logging")
}

// newLogger builds a zap logger writing to stderr.
func newLogger(flags *pflag.FlagSet) (*zap.Logger, error) {
	levelStr, err := flags.GetString(LogLevelKey)
	if err != nil {
		return nil, err
	}
	level, err := zap.ParseAtomicLevel(levelStr)
	if err != nil {
		return nil, err
	}
	dev, err := flags.GetBool(DevKey)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
