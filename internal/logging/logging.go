// Package logging provides structured logging built on log/slog, with
// JSON output to a log file and human-readable output to the console.
// Init's log file is not rotated; NewFileLogger writes to rotated files.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	structuredLogger    *slog.Logger
	humanReadableLogger *slog.Logger
	loggerMu            sync.RWMutex
)

var currentStructuredCloser io.Closer
var currentHumanCloser io.Closer

var currentLevel = new(slog.LevelVar)
var initOnce sync.Once
var initialized bool

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

func defaultReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format("2006-01-02T15:04:05Z07:00"))
	}
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			label, exists := levelNames[level]
			if !exists {
				label = level.String()
			}
			a.Value = slog.StringValue(label)
		}
	}
	if a.Value.Kind() == slog.KindFloat64 {
		truncated := math.Trunc(a.Value.Float64()*100) / 100.0
		a.Value = slog.Float64Value(truncated)
	}
	return a
}

// Init sets up the global structured (JSON, file) and human-readable
// (text, stdout) loggers. Safe to call more than once; only the first
// call takes effect.
func Init(logDir string) {
	initOnce.Do(func() {
		currentLevel.Set(slog.LevelInfo)

		if logDir == "" {
			logDir = "logs"
		}
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			fmt.Printf("failed to create log directory: %v\n", err)
			os.Exit(1)
		}

		structuredFile, err := os.OpenFile(filepath.Join(logDir, "engine.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			fmt.Printf("failed to open structured log file: %v\n", err)
			structuredFile = os.Stderr
		}
		if structuredFile != os.Stderr {
			currentStructuredCloser = structuredFile
		}

		structuredHandler := slog.NewJSONHandler(structuredFile, &slog.HandlerOptions{
			Level:       currentLevel,
			ReplaceAttr: defaultReplaceAttr,
		})
		humanHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:       currentLevel,
			ReplaceAttr: defaultReplaceAttr,
		})

		loggerMu.Lock()
		structuredLogger = slog.New(structuredHandler)
		humanReadableLogger = slog.New(humanHandler)
		loggerMu.Unlock()

		slog.SetDefault(structuredLogger)
		initialized = true
	})
}

// IsInitialized reports whether Init has run.
func IsInitialized() bool {
	return initialized
}

// SetLevel changes the level for all loggers created through this package.
func SetLevel(level slog.Level) {
	currentLevel.Set(level)
}

// SetOutput redirects both loggers, closing any previously owned writers.
func SetOutput(structuredOutput, humanOutput io.Writer) error {
	if structuredOutput == nil || humanOutput == nil {
		return errors.New("logging: output writer cannot be nil")
	}

	var closeErrs []error
	if currentStructuredCloser != nil {
		if err := currentStructuredCloser.Close(); err != nil {
			closeErrs = append(closeErrs, err)
		}
		currentStructuredCloser = nil
	}
	if currentHumanCloser != nil {
		if err := currentHumanCloser.Close(); err != nil {
			closeErrs = append(closeErrs, err)
		}
		currentHumanCloser = nil
	}

	structuredHandler := slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
		Level:       currentLevel,
		ReplaceAttr: defaultReplaceAttr,
	})
	humanHandler := slog.NewTextHandler(humanOutput, &slog.HandlerOptions{
		Level:       currentLevel,
		ReplaceAttr: defaultReplaceAttr,
	})

	loggerMu.Lock()
	structuredLogger = slog.New(structuredHandler)
	humanReadableLogger = slog.New(humanHandler)
	loggerMu.Unlock()

	if c, ok := structuredOutput.(io.Closer); ok {
		currentStructuredCloser = c
	}
	if c, ok := humanOutput.(io.Closer); ok {
		currentHumanCloser = c
	}

	slog.SetDefault(structuredLogger)

	if len(closeErrs) > 0 {
		return errors.Join(closeErrs...)
	}
	return nil
}

// ForService returns a logger tagged with a "service" attribute,
// falling back to slog.Default if Init has not run yet.
func ForService(name string) *slog.Logger {
	loggerMu.RLock()
	logger := structuredLogger
	loggerMu.RUnlock()

	if logger == nil {
		return slog.Default().With("service", name)
	}
	return logger.With("service", name)
}

// Fatal logs at the custom Fatal level then exits the process.
func Fatal(msg string, args ...any) {
	slog.Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs at the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// NewFileLogger creates a rotated (lumberjack) JSON logger for a specific
// file, independent of the global loggers — used by components that need
// their own log file (e.g. per-task audit trails).
func NewFileLogger(filePath, serviceName string, levelVar *slog.LevelVar, maxSizeMB, maxBackups, maxAgeDays int) (*slog.Logger, func() error, error) {
	dir := filepath.Dir(filePath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory %s: %w", dir, err)
		}
	}

	lj := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	handler := slog.NewJSONHandler(lj, &slog.HandlerOptions{
		Level:       levelVar,
		ReplaceAttr: defaultReplaceAttr,
	})

	logger := slog.New(handler).With("service", serviceName)
	return logger, lj.Close, nil
}
