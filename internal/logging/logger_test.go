package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{"": zapcore.InfoLevel, "DEBUG": zapcore.DebugLevel, " warn ": zapcore.WarnLevel, "error": zapcore.ErrorLevel}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewWritesLevelFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, err := New(Options{Directory: dir, Level: "info"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Debug("hidden")
	log.Warn("visible")
	_ = log.Sync()
	if _, err := os.Stat(filepath.Join(dir, "warn.log")); err != nil {
		t.Fatalf("expected warn.log: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug.log should not exist below the minimum level, got %v", err)
	}
}
