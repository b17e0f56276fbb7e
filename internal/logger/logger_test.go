package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDebugModeWritesNoFile(t *testing.T) {
	dir := t.TempDir()
	log := New("debug", Options{Dir: dir, Filename: "debug.log"})
	if log == nil {
		t.Fatalf("expected logger instance")
	}
	log.Sugar().Infow("debug_mode_smoke", "key", "value")
	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create a log file, stat err = %v", err)
	}
}

func TestNewReleaseModeCreatesFile(t *testing.T) {
	dir := t.TempDir()
	log := New("release", Options{Dir: dir, Filename: "app.log"})
	if log == nil {
		t.Fatalf("expected logger instance")
	}
	log.Sugar().Infow("release_mode_smoke", "key", "value")
	_ = log.Sync()
	if _, err := os.Stat(filepath.Join(dir, "app.log")); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}

func TestZFallsBackWhenUninitialized(t *testing.T) {
	saved := L
	L = nil
	defer func() { L = saved }()
	if Z() == nil {
		t.Fatalf("Z should never return nil")
	}
}
