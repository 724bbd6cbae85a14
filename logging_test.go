package psu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, _, err := NewLogger(LogConfig{Level: "loud"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psu.log")

	logger, closer, err := NewLogger(LogConfig{Level: "debug", File: path, MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewLogger error: %v", err)
	}

	logger.Debug().Str("line", "GETD00").Msg("send")
	logger.Trace().Msg("below level")
	if err = closer.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"component":"psu"`) || !strings.Contains(out, `"message":"send"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
	if strings.Contains(out, "below level") {
		t.Fatalf("trace event written at debug level: %s", out)
	}
}
