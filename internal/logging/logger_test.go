package logging

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInitializeSilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected no-op logger when no level is configured")
	}
}

func TestInitializeWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device.log")

	if err := InitializeWithFile("debug", FileOptions{Path: path}); err != nil {
		t.Fatalf("InitializeWithFile() error = %v", err)
	}
	defer SetLogger(zap.NewNop())

	if !GetLogger().Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}
}

func TestLogNotificationLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogNotification("wifi_status", 2, 0)
	LogNotification("wifi_status", 2, 1)

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel {
		t.Errorf("clean delivery logged at %v, want debug", entries[0].Level)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("failed delivery logged at %v, want warn", entries[1].Level)
	}
}

func TestLogConfigChangeOmitsValues(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(zap.NewNop())

	LogConfigChange([]string{"key", "key_length"}, true)

	entry := logs.AllUntimed()[0]
	for _, f := range entry.Context {
		if f.Key == "key" {
			t.Error("key material field must not be logged")
		}
	}
}
