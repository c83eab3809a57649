package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/trialscope/trialscope/pkg/logger"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWithWriter("info", "json", &buf)
	if err != nil {
		t.Fatalf("NewWithWriter() error: %v", err)
	}

	log.Debug("hidden")
	log.Info("refresh complete", zap.Int("sites", 12))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "refresh complete" || entry["level"] != "info" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["sites"] != float64(12) {
		t.Errorf("sites field = %v", entry["sites"])
	}
}

func TestNewRejectsBadSettings(t *testing.T) {
	if _, err := logger.NewWithWriter("loud", "json", &bytes.Buffer{}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := logger.NewWithWriter("info", "xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestOrNop(t *testing.T) {
	if logger.OrNop(nil) == nil {
		t.Error("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if logger.OrNop(l) != l {
		t.Error("OrNop changed a non-nil logger")
	}
}
