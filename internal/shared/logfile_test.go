package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewAppLogger(t *testing.T) {
	t.Run("console only", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewAppLogger(LogConfig{Level: "debug"}, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
		logger.Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Errorf("expected debug output, got %q", buf.String())
		}
	})

	t.Run("tees to rotating file", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "logs", "spm.log")

		logger, err := NewAppLogger(LogConfig{Level: "info", File: path}, &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info("written twice")

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(content), "written twice") {
			t.Errorf("expected file output, got %q", content)
		}
		if !strings.Contains(buf.String(), "written twice") {
			t.Errorf("expected console output, got %q", buf.String())
		}
	})

	t.Run("empty file path", func(t *testing.T) {
		if _, err := NewRotatingWriter(LogConfig{}); err == nil {
			t.Error("expected error for empty path")
		}
	})
}
