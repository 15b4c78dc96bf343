package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB   = 10
	maxLogBackups  = 10
	logFileMode    = 0o755
	timestampStyle = "2006-01-02T15:04:05.000Z07:00"
)

// FileLogger returns a JSON logger writing to stdout and a size-rotated file.
// The returned closer releases the file handle.
func FileLogger(level logrus.Level, logPath string) (io.Closer, *logrus.Logger, error) {
	if dir := filepath.Dir(logPath); dir != "" {
		if err := os.MkdirAll(dir, logFileMode); err != nil {
			return nil, nil, err
		}
	}
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
	}

	logger := logrus.New()
	logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampStyle})
	logger.SetLevel(level)
	return rotator, logger, nil
}

// ConsoleLogger returns a text logger for CLI commands and tests.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: timestampStyle})
	logger.SetLevel(level)
	return logger
}
