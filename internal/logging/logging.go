// Package logging configures logrus output and provides the Gin middleware
// for request logging and panic recovery.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global logrus logger. When logDir is non-empty the
// output tees to a size-rotated file alongside stderr.
func Setup(level string, logDir string) {
	parsed, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if logDir == "" {
		log.SetOutput(os.Stderr)
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "gateway.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotated))
}
