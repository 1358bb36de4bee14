package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// InitLogging sends logs to stdout and cfg.File. The returned file, if any,
// must be closed by the caller on shutdown.
func InitLogging(cfg LogConfig, environment string) (logrus.FieldLogger, *os.File) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}

	var logFile *os.File
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), os.ModePerm); err != nil {
			logger.Warnf("Failed to create logs directory: %v", err)
		}
		f, err := os.OpenFile(filepath.Clean(cfg.File), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger.Warnf("Failed to open log file %s, using stdout only: %v", cfg.File, err)
		} else {
			logFile = f
		}
	}

	LogWriter = os.Stdout
	if logFile != nil {
		LogWriter = io.MultiWriter(os.Stdout, logFile)
	}
	logger.SetOutput(LogWriter)

	return logger.WithFields(logrus.Fields{
		"application": "relief-claims-api",
		"environment": environment,
	}), logFile
}
