package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := fromEnv()

	assert.Equal(t, "5000", cfg.StudentPort)
	assert.Equal(t, "50001", cfg.AdminPort)
	assert.Equal(t, "DIU.pdf", cfg.ReferenceDoc)
	assert.Equal(t, HistoryBackendFile, cfg.HistoryBackend)
	assert.Equal(t, "conversation_histories", cfg.HistoryDir)
	assert.Equal(t, ProviderGroq, cfg.LLMProvider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLMModel)
	assert.True(t, cfg.SearchEnabled)
	assert.Equal(t, 60*time.Second, cfg.AgentTimeout)
	assert.Equal(t, 120000, cfg.MaxPromptChars)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("UNIASSIST_STUDENT_PORT", "8080")
	t.Setenv("UNIASSIST_HISTORY_BACKEND", "BOLT")
	t.Setenv("UNIASSIST_LLM_PROVIDER", "Anthropic")
	t.Setenv("UNIASSIST_SEARCH_ENABLED", "false")
	t.Setenv("UNIASSIST_AGENT_TIMEOUT", "15s")
	t.Setenv("UNIASSIST_MAX_PROMPT_CHARS", "500")
	t.Setenv("UNIASSIST_LOG_LEVEL", "debug")

	cfg := fromEnv()

	assert.Equal(t, "8080", cfg.StudentPort)
	assert.Equal(t, HistoryBackendBolt, cfg.HistoryBackend)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.False(t, cfg.SearchEnabled)
	assert.Equal(t, 15*time.Second, cfg.AgentTimeout)
	assert.Equal(t, 500, cfg.MaxPromptChars)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("UNIASSIST_AGENT_TIMEOUT", "soon")
	t.Setenv("UNIASSIST_MAX_PROMPT_CHARS", "lots")
	t.Setenv("UNIASSIST_SEARCH_ENABLED", "maybe")

	cfg := fromEnv()

	assert.Equal(t, 60*time.Second, cfg.AgentTimeout)
	assert.Equal(t, 120000, cfg.MaxPromptChars)
	assert.True(t, cfg.SearchEnabled)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := fromEnv()
		cfg.SecretKey = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing secret", func(c *Config) { c.SecretKey = "" }, "UNIASSIST_SECRET_KEY"},
		{"unknown backend", func(c *Config) { c.HistoryBackend = "redis" }, "history backend"},
		{"unknown provider", func(c *Config) { c.LLMProvider = "mystery" }, "LLM provider"},
		{"unknown search", func(c *Config) { c.SearchProvider = "bing" }, "search provider"},
		{"search disabled ignores provider", func(c *Config) {
			c.SearchEnabled = false
			c.SearchProvider = "bing"
		}, ""},
		{"zero timeout", func(c *Config) { c.AgentTimeout = 0 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"Warning", slog.LevelWarn},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("chat reply sent", "user", "42")

	assert.NotContains(t, stderr.String(), "hidden")
	assert.Contains(t, stderr.String(), "chat reply sent")

	var line map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(file.String())), &line))
	assert.Equal(t, "chat reply sent", line["msg"])
	assert.Equal(t, "42", line["user"])
}

func TestSetupLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "uniassist.log")

	logger, cleanup := SetupLogger("student", path, slog.LevelInfo)
	logger.Info("started")
	require.NoError(t, cleanup())

	assert.FileExists(t, path)
}
