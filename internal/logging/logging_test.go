package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
	}{
		{"debug", "console", zapcore.DebugLevel},
		{"info", "json", zapcore.InfoLevel},
		{"warn", "console", zapcore.WarnLevel},
		{"ERROR", "json", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		logger, err := New(tt.level, tt.format)
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tt.level, tt.format, err)
		}
		if !logger.Core().Enabled(tt.want) {
			t.Errorf("%s: level %s should be enabled", tt.level, tt.want)
		}
		if tt.want > zapcore.DebugLevel && logger.Core().Enabled(tt.want-1) {
			t.Errorf("%s: level %s should be disabled", tt.level, tt.want-1)
		}
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("chatty", "console"); err == nil {
		t.Error("expected error for unknown level")
	}
}
