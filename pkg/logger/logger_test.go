package logger

import (
	"path/filepath"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
	if err := DebugConfig().Validate(); err != nil {
		t.Errorf("Expected debug config to validate, got %v", err)
	}

	config := DefaultConfig()
	config.Level = "loud"
	if err := config.Validate(); err == nil {
		t.Error("Expected invalid level to fail validation")
	}

	config = DefaultConfig()
	config.Format = "plain"
	if err := config.Validate(); err == nil {
		t.Error("Expected invalid format to fail validation")
	}

	config = DefaultConfig()
	config.Output = FileOutput
	if err := config.Validate(); err == nil {
		t.Error("Expected file output without a path to fail validation")
	}
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(nil)
	if err != nil {
		t.Fatalf("NewLogger(nil) failed: %v", err)
	}
	if log == nil {
		t.Fatal("Expected a logger")
	}

	log, err = NewLogger(&Config{Level: DebugLevel, Format: JSONFormat, Output: StdoutOutput})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if log == nil {
		t.Fatal("Expected a logger")
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "reconciler.log")

	log, err := NewLogger(&Config{Level: InfoLevel, Format: JSONFormat, Output: FileOutput, File: path})
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	log.Info("written to file")
}

func TestWithFieldChaining(t *testing.T) {
	log, err := NewLogger(DefaultConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	// Derived loggers must be independent values, not mutate the parent.
	child := log.WithField("a", 1).WithFields(Fields{"b": 2}).WithComponent("test")
	if child == nil {
		t.Fatal("Expected a derived logger")
	}
	if child == log {
		t.Error("Expected a new logger value after adding fields")
	}
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	if original == nil {
		t.Fatal("Expected the package to initialize a global logger")
	}

	replacement, err := NewLogger(DebugConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	SetGlobalLogger(replacement)

	if GetGlobalLogger() != replacement {
		t.Error("Expected the replacement logger to be returned")
	}
}

func TestProgressTracker(t *testing.T) {
	log, err := NewLogger(DefaultConfig())
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	tracker := NewProgressTracker(log, "test operation", 3, time.Millisecond)
	for i := 0; i < 3; i++ {
		tracker.Increment()
	}
	tracker.Complete()
}
