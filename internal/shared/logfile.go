package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewRotatingWriter returns a size-rotated log file writer for cfg.File.
func NewRotatingWriter(cfg LogConfig) (io.WriteCloser, error) {
	if cfg.File == "" {
		return nil, fmt.Errorf("%w: log file path is empty", ErrInvalidConfig)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 10),
		MaxBackups: orDefault(cfg.MaxBackups, 3),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		Compress:   true,
	}, nil
}

// NewFileLogger creates a logger that writes only to a rotating file at path.
func NewFileLogger(path string) (*log.Logger, error) {
	w, err := NewRotatingWriter(LogConfig{File: path})
	if err != nil {
		return nil, err
	}
	return NewLogger(w), nil
}

// NewAppLogger builds the process logger from cfg: console output to w, teed to a rotating file when cfg.File is set.
func NewAppLogger(cfg LogConfig, w io.Writer) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	out := w
	if cfg.File != "" {
		file, err := NewRotatingWriter(cfg)
		if err != nil {
			return nil, err
		}
		out = io.MultiWriter(w, file)
	}

	logger := NewLogger(out)
	if err := SetLogLevelString(logger, cfg.Level); err != nil {
		return logger, err
	}
	return logger, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
