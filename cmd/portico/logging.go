package main

import (
	"log/slog"

	"github.com/csmith/slogflags"
)

func initLogging() {
	_ = slogflags.Logger(
		slogflags.WithOldLogLevel(slog.LevelDebug),
		slogflags.WithSetDefault(true),
	)
}
