package logger

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"favmovies/internal/config"
)

// New builds the process logger from LOG_LEVEL and LOG_FORMAT.
func New(cfg *config.Config) *log.Logger {
	return NewWithOutput(cfg, os.Stdout)
}

func NewWithOutput(cfg *config.Config, out io.Writer) *log.Logger {
	l := log.New()
	l.SetOutput(out)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	l.SetLevel(level)

	if cfg.LogFormat == "json" {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
			DisableColors: !cfg.IsDevelopment(),
		})
	}
	return l
}
