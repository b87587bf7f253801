package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ha1tch/qaflow/pkg/config"
)

// newLogger builds a zap logger from the [log] section. When toFile is set
// and no file is configured, output goes to qaflow.log in the config
// directory, keeping the terminal free for the editor.
func newLogger(cfg config.LogConfig, toFile bool) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	switch cfg.Level {
	case "debug":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	path := cfg.File
	if path == "" && toFile {
		path = filepath.Join(config.Dir(), "qaflow.log")
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		zapConfig.OutputPaths = []string{path}
		zapConfig.ErrorOutputPaths = []string{path}
	}

	return zapConfig.Build()
}
