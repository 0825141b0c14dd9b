package cliconfig

import (
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		changed map[string]bool
		initial Config
		check   func(t *testing.T, cfg Config)
		wantErr bool
	}{
		{
			name: "applies env vars",
			envVars: map[string]string{
				"MORSEBRIDGE_CAPTURE_PORT":     "/dev/ttyUSB1",
				"MORSEBRIDGE_POLL_INTERVAL":    "250ms",
				"MORSEBRIDGE_DISPLAY_BAUD":     "19200",
				"MORSEBRIDGE_API_KEY":          "env-key",
				"MORSEBRIDGE_ONCE":             "true",
				"MORSEBRIDGE_INTERPRET_PROMPT": "decode",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, cfg Config) {
				if cfg.CapturePort != "/dev/ttyUSB1" {
					t.Errorf("CapturePort = %q", cfg.CapturePort)
				}
				if cfg.PollInterval != 250*time.Millisecond {
					t.Errorf("PollInterval = %v", cfg.PollInterval)
				}
				if cfg.DisplayBaud != 19200 {
					t.Errorf("DisplayBaud = %d", cfg.DisplayBaud)
				}
				if cfg.APIKey != "env-key" || !cfg.Once || cfg.InterpretPrompt != "decode" {
					t.Errorf("cfg = %+v", cfg)
				}
			},
		},
		{
			name:    "respects changed flags",
			envVars: map[string]string{"MORSEBRIDGE_MODEL": "env-model"},
			changed: map[string]bool{"model": true},
			initial: Config{Model: "flag-model"},
			check: func(t *testing.T, cfg Config) {
				if cfg.Model != "flag-model" {
					t.Errorf("Model = %q, want flag value", cfg.Model)
				}
			},
		},
		{
			name:    "api key falls back to ANTHROPIC_API_KEY",
			envVars: map[string]string{"ANTHROPIC_API_KEY": "sk-fallback"},
			changed: map[string]bool{},
			check: func(t *testing.T, cfg Config) {
				if cfg.APIKey != "sk-fallback" {
					t.Errorf("APIKey = %q, want fallback", cfg.APIKey)
				}
			},
		},
		{
			name: "prefixed api key wins over fallback",
			envVars: map[string]string{
				"ANTHROPIC_API_KEY":   "sk-fallback",
				"MORSEBRIDGE_API_KEY": "sk-prefixed",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, cfg Config) {
				if cfg.APIKey != "sk-prefixed" {
					t.Errorf("APIKey = %q, want prefixed value", cfg.APIKey)
				}
			},
		},
		{
			name:    "flag api key wins over fallback",
			envVars: map[string]string{"ANTHROPIC_API_KEY": "sk-fallback"},
			changed: map[string]bool{"api-key": true},
			initial: Config{APIKey: "sk-flag"},
			check: func(t *testing.T, cfg Config) {
				if cfg.APIKey != "sk-flag" {
					t.Errorf("APIKey = %q, want flag value", cfg.APIKey)
				}
			},
		},
		{
			name: "zero watermark disables cleanup",
			envVars: map[string]string{
				"MORSEBRIDGE_CLEANUP_HIGH_BYTES": "0",
				"MORSEBRIDGE_CLEANUP_LOW_BYTES":  "0",
			},
			changed: map[string]bool{},
			initial: Config{CleanupHighBytes: 1000, CleanupLowBytes: 800},
			check: func(t *testing.T, cfg Config) {
				if cfg.CleanupHighBytes != 0 || cfg.CleanupLowBytes != 0 {
					t.Errorf("watermarks = %d/%d, want 0/0", cfg.CleanupHighBytes, cfg.CleanupLowBytes)
				}
			},
		},
		{
			name:    "negative watermark ignored",
			envVars: map[string]string{"MORSEBRIDGE_CLEANUP_HIGH_BYTES": "-5"},
			changed: map[string]bool{},
			initial: Config{CleanupHighBytes: 1000},
			check: func(t *testing.T, cfg Config) {
				if cfg.CleanupHighBytes != 1000 {
					t.Errorf("CleanupHighBytes = %d, want 1000", cfg.CleanupHighBytes)
				}
			},
		},
		{
			name:    "zero quality still ignored",
			envVars: map[string]string{"MORSEBRIDGE_JPEG_QUALITY": "0"},
			changed: map[string]bool{},
			initial: Config{JPEGQuality: 80},
			check: func(t *testing.T, cfg Config) {
				if cfg.JPEGQuality != 80 {
					t.Errorf("JPEGQuality = %d, want 80", cfg.JPEGQuality)
				}
			},
		},
		{
			name:    "invalid duration",
			envVars: map[string]string{"MORSEBRIDGE_CAPTURE_TIMEOUT": "soon"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid watermark",
			envVars: map[string]string{"MORSEBRIDGE_CLEANUP_LOW_BYTES": "lots"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "invalid int",
			envVars: map[string]string{"MORSEBRIDGE_JPEG_QUALITY": "high"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(APIKeyEnv, "")
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
