package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		debug bool
		level zapcore.Level
	}{
		{false, zapcore.InfoLevel},
		{true, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		logger, err := New(tt.debug)
		if err != nil {
			t.Fatalf("New(%v) failed: %v", tt.debug, err)
		}
		if !logger.Core().Enabled(tt.level) {
			t.Errorf("New(%v): expected %s to be enabled", tt.debug, tt.level)
		}
		if !tt.debug && logger.Core().Enabled(zapcore.DebugLevel) {
			t.Error("Expected debug level to be disabled without debug mode")
		}
	}
}
