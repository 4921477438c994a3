package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level    string
		mode     string
		expected zapcore.Level
	}{
		{"", "development", zapcore.InfoLevel},
		{"debug", "development", zapcore.DebugLevel},
		{"warn", "production", zapcore.WarnLevel},
		{"ERROR", "release", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.mode, func(t *testing.T) {
			logger, err := New(tt.level, tt.mode)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			defer Sync(logger)

			if !logger.Core().Enabled(tt.expected) {
				t.Errorf("expected %s to be enabled", tt.expected)
			}
			if tt.expected > zapcore.DebugLevel && logger.Core().Enabled(tt.expected-1) {
				t.Errorf("expected %s to be disabled", tt.expected-1)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud", "development"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSync_Nil(t *testing.T) {
	// must not panic
	Sync(nil)
}
