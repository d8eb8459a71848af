package main

import (
	"github.com/jamesainslie/hashsum/pkg/hashsum/config"
	"github.com/jamesainslie/hashsum/pkg/hashsum/logging"
	"github.com/jamesainslie/hashsum/pkg/hashsum/types"
)

// initLogging starts file logging from cfg. Verbose mode also mirrors
// debug output to stderr.
func initLogging(cfg *config.Config, verbose bool) error {
	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if logCfg.Path == "" {
		logCfg.Path = logging.DefaultLogPath()
	}
	if verbose {
		logCfg.ConsoleLevel = "debug"
	}
	return logging.Init(logCfg)
}

// parseRotationConfig converts the config file form. An empty or invalid
// max_size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.DefaultRotationConfig()
	out.MaxAge = rc.MaxAge
	out.MaxBackups = rc.MaxBackups
	out.Daily = rc.Daily

	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	return out
}
