package slogutil

import (
	"io"
	"log/slog"
	"path/filepath"

	"codetour/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the process logger from the logging config. Records go to stderr in
// the configured format and, when cfg.File is set, also to a rotating file under
// configDir in the human format. A non-nil override replaces the configured level,
// which is how -v and --quiet win over the config file.
//
// The returned closer releases the log file and must be closed by the caller.
func Setup(cfg config.LoggingConfig, configDir string, stderr io.Writer, override *slog.Level) (*slog.Logger, io.Closer, error) {
	level := LevelFromString(cfg.Level)
	if override != nil {
		level = *override
	}

	console := NewHandler(stderr, level, ParseFormat(cfg.Format))
	if cfg.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(configDir, path)
	}
	writer, err := openLogFile(path, cfg.MaxSize, cfg.MaxBackups)
	if err != nil {
		return nil, nil, err
	}

	// The file keeps info and above even when the console is quiet.
	fileLevel := level
	if fileLevel > slog.LevelInfo {
		fileLevel = slog.LevelInfo
	}
	file := NewTextHandler(writer, &slog.HandlerOptions{Level: fileLevel})

	return slog.New(NewTeeHandler(console, file)), writer, nil
}
