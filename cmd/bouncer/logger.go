package main

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sable-ops/bouncer/internal/config"
)

// newLogger builds a structured logger writing JSON to a rotated file,
// per cfg.Log. level is shared with the root command's --verbose flag.
func newLogger(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	return slog.New(slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: level}))
}
