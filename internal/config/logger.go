// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel resolves the configured level, raised by each --debug occurrence:
// one enables DEBUG, two or more enable TRACE.
func LogLevel(configured string, debug int) (zerolog.Level, error) {
	level := zerolog.WarnLevel
	if strings.TrimSpace(configured) != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(configured))
		if err != nil {
			return zerolog.NoLevel, fmt.Errorf("invalid logLevel %q (options: ERROR, WARN, INFO, DEBUG, TRACE)", configured)
		}
		level = parsed
	}

	switch {
	case debug >= 2:
		level = min(level, zerolog.TraceLevel)
	case debug == 1:
		level = min(level, zerolog.DebugLevel)
	}
	return level, nil
}

// InitLogger points the global logger at stderr, and at a rotating log file
// when logPath is set. The returned closer flushes the file.
func (c *AppConfig) InitLogger(stderr io.Writer, debug int) (io.Closer, error) {
	level, err := LogLevel(c.Config.LogLevel, debug)
	if err != nil {
		return nil, err
	}

	console := zerolog.ConsoleWriter{
		Out:        stderr,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTerminal(stderr),
	}

	writers := []io.Writer{console}
	var closer io.Closer = nopCloser{}

	if c.Config.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.Config.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   c.Config.LogPath,
			MaxSize:    c.Config.LogMaxSize,
			MaxBackups: c.Config.LogMaxBackups,
		}
		writers = append(writers, file)
		closer = file
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	log.Logger = logger
	zerolog.SetGlobalLevel(level)

	log.Debug().
		Str("level", level.String()).
		Str("config", c.path).
		Str("logPath", c.Config.LogPath).
		Msg("config: logger initialized")

	return closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
