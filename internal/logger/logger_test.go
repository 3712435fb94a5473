package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")

	log, err := New(Options{JSON: true, Debug: true, Output: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("normalize", RunFields("abc")...)
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("expected json log line, got %q: %v", data, err)
	}

	if entry["step"] != "normalize" {
		t.Fatalf("expected step message, got %v", entry["step"])
	}
	if entry["level"] != "debug" {
		t.Fatalf("expected debug level, got %v", entry["level"])
	}
	if entry[FieldRunID] != "abc" {
		t.Fatalf("expected run id, got %v", entry[FieldRunID])
	}
}

func TestNewInfoLevelDropsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	log, err := New(Options{Output: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	log.Debug("hidden")
	log.Info("visible")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}

	if strings.Contains(string(data), "hidden") {
		t.Fatalf("debug entry must be filtered at info level: %q", data)
	}
	if !strings.Contains(string(data), "visible") {
		t.Fatalf("expected info entry, got %q", data)
	}
}
