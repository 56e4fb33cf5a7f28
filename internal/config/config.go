// Package config provides environment-based configuration for UniAssist.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider identifies a language-model backend for the admission agent.
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderOpenAI    Provider = "openai"
	ProviderOllama    Provider = "ollama"
	ProviderBedrock   Provider = "bedrock"
	ProviderAnthropic Provider = "anthropic"
)

// History store backends.
const (
	HistoryBackendFile    = "file"
	HistoryBackendBolt    = "bolt"
	HistoryBackendSurreal = "surreal"
)

// Web search providers used by langchaingo-backed agents.
const (
	SearchDuckDuckGo = "duckduckgo"
	SearchSerpAPI    = "serpapi"
)

// Config holds all configuration values.
type Config struct {
	// HTTP
	StudentPort string
	AdminPort   string
	SecretKey   string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Chat assistant
	ReferenceDoc   string
	Institution    string
	PersonaFile    string
	MaxPromptChars int
	AgentTimeout   time.Duration

	// Conversation history
	HistoryBackend  string
	HistoryDir      string
	HistoryBoltPath string

	// Language model
	LLMProvider     Provider
	LLMModel        string
	GroqAPIKey      string
	GroqBaseURL     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	OllamaHost      string
	AWSRegion       string

	// Web search capability
	SearchEnabled  bool
	SearchProvider string
	SerpAPIKey     string

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Tracing
	TracingEnabled bool
	OTLPEndpoint   string
}

// Load reads configuration from environment variables.
// A .env file in the working directory is applied first when present;
// variables already set in the environment take precedence over it.
func Load() Config {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() Config {
	return Config{
		StudentPort: getEnv("UNIASSIST_STUDENT_PORT", "5000"),
		AdminPort:   getEnv("UNIASSIST_ADMIN_PORT", "50001"),
		SecretKey:   getEnv("UNIASSIST_SECRET_KEY", ""),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "admission"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "admission_ai"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		ReferenceDoc:   getEnv("UNIASSIST_REFERENCE_DOC", "DIU.pdf"),
		Institution:    getEnv("UNIASSIST_INSTITUTION", "Daffodil International University (DIU)"),
		PersonaFile:    getEnv("UNIASSIST_PERSONA_FILE", ""),
		MaxPromptChars: getEnvInt("UNIASSIST_MAX_PROMPT_CHARS", 120000),
		AgentTimeout:   getEnvDuration("UNIASSIST_AGENT_TIMEOUT", 60*time.Second),

		HistoryBackend:  strings.ToLower(getEnv("UNIASSIST_HISTORY_BACKEND", HistoryBackendFile)),
		HistoryDir:      getEnv("UNIASSIST_HISTORY_DIR", "conversation_histories"),
		HistoryBoltPath: getEnv("UNIASSIST_HISTORY_BOLT_PATH", "conversation_histories/history.bolt"),

		LLMProvider:     Provider(strings.ToLower(getEnv("UNIASSIST_LLM_PROVIDER", string(ProviderGroq)))),
		LLMModel:        getEnv("UNIASSIST_LLM_MODEL", "llama-3.3-70b-versatile"),
		GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		SearchEnabled:  getEnvBool("UNIASSIST_SEARCH_ENABLED", true),
		SearchProvider: strings.ToLower(getEnv("UNIASSIST_SEARCH_PROVIDER", SearchDuckDuckGo)),
		SerpAPIKey:     getEnv("SERPAPI_API_KEY", ""),

		LogFile:  getEnv("UNIASSIST_LOG_FILE", "/tmp/uniassist.log"),
		LogLevel: parseLogLevel(getEnv("UNIASSIST_LOG_LEVEL", "INFO")),

		TracingEnabled: getEnvBool("UNIASSIST_TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
	}
}

// Validate checks that required values are present and enumerations are known.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("missing required environment variable: UNIASSIST_SECRET_KEY")
	}
	switch c.HistoryBackend {
	case HistoryBackendFile, HistoryBackendBolt, HistoryBackendSurreal:
	default:
		return fmt.Errorf("unsupported history backend: %s", c.HistoryBackend)
	}
	switch c.LLMProvider {
	case ProviderGroq, ProviderOpenAI, ProviderOllama, ProviderBedrock, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	if c.SearchEnabled && c.SearchProvider != SearchDuckDuckGo && c.SearchProvider != SearchSerpAPI {
		return fmt.Errorf("unsupported search provider: %s", c.SearchProvider)
	}
	if c.AgentTimeout <= 0 {
		return fmt.Errorf("agent timeout must be positive, got %s", c.AgentTimeout)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
