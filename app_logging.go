package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"winseek/internal/config"
	"winseek/internal/sessionlog"
)

// setupLogging installs the default logger: text to stderr at the level held
// by level, with Warn and above also appended to this run's JSONL log. The
// returned file may be nil when the log directory is unusable.
func setupLogging(level *slog.LevelVar) *sessionlog.File {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	dir := filepath.Join(config.AppDir(), sessionlog.DirName)
	file, err := sessionlog.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[session-log] disabled: %v\n", err)
		slog.SetDefault(slog.New(base))
		return nil
	}

	slog.SetDefault(slog.New(sessionlog.NewTeeHandler(base, slog.LevelWarn, file.Write)))
	slog.Info("[session-log] initialized", "path", file.Path())
	return file
}
