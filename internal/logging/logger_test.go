package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shrinkray/internal/logging"
)

func TestNewConsoleWritesComponentPrefix(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "console.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "info",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WithComponent(logger, "gate").Info("kept original", logging.Int64("saved_bytes", 0))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "gate: kept original") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, "saved_bytes=0") {
		t.Fatalf("expected key=value attr, got %q", line)
	}
}

func TestNewJSONFormat(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "out.json")

	logger, err := logging.New(logging.Options{
		Format:  "json",
		Level:   "debug",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("probe complete", logging.String("format", "wav"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"probe complete"`) {
		t.Fatalf("expected JSON message field, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "filtered.log")

	logger, err := logging.New(logging.Options{
		Format:  "console",
		Level:   "warn",
		Outputs: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("dropped")
	logger.Warn("kept")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "dropped") {
		t.Fatalf("info line should be filtered, got %q", content)
	}
	if !strings.Contains(string(content), "kept") {
		t.Fatalf("warn line missing, got %q", content)
	}
}
