// Package config provides configuration for the gateway.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the gateway configuration.
type Config struct {
	// Telegram settings
	TelegramToken  string
	TelegramAPIURL string

	// Inference settings
	VLLMURL           string
	ModelName         string
	ModelTemperature  float64
	ModelMaxTokens    int
	LLMTimeout        time.Duration
	MaxToolIterations int

	// Backend settings
	BackendAPIURL  string
	DefaultProject string

	// Tool script directories
	TaskScriptsDir    string
	RFPScriptsDir     string
	ProjectScriptsDir string

	// Media inbox for document uploads
	MediaInboxDir string

	// Ops server
	HTTPPort int

	// Optional rego policy file overriding the default tool policy
	PolicyFile string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramAPIURL:    getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		VLLMURL:           getEnv("VLLM_URL", "http://10.0.8.2:8003/v1/chat/completions"),
		ModelName:         getEnv("MODEL_NAME", "Qwen/Qwen3-8B"),
		ModelTemperature:  getEnvFloat("MODEL_TEMPERATURE", 0.7),
		ModelMaxTokens:    getEnvInt("MODEL_MAX_TOKENS", 2000),
		LLMTimeout:        time.Duration(getEnvInt("LLM_TIMEOUT_MS", 120000)) * time.Millisecond,
		MaxToolIterations: getEnvInt("MAX_TOOL_ITERATIONS", 5),
		BackendAPIURL:     getEnv("VANTAGE_API_URL", "http://localhost:8000") + "/api",
		DefaultProject:    getEnv("DEFAULT_PROJECT_SLUG", "demo-project"),
		TaskScriptsDir:    getEnv("TASK_SCRIPTS_DIR", "/opt/vantage/skills/task-tracker/scripts"),
		RFPScriptsDir:     getEnv("RFP_SCRIPTS_DIR", "/opt/vantage/skills/rfp-analyzer/scripts"),
		ProjectScriptsDir: getEnv("PROJECT_SCRIPTS_DIR", "/opt/vantage/scripts"),
		MediaInboxDir:     getEnv("MEDIA_INBOX_DIR", defaultMediaInbox()),
		HTTPPort:          getEnvInt("HTTP_PORT", 8082),
		PolicyFile:        os.Getenv("POLICY_FILE"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}
	if c.MaxToolIterations < 1 {
		return fmt.Errorf("MAX_TOOL_ITERATIONS must be at least 1")
	}
	return nil
}

// MediaInboxPath returns the inbox destination for an uploaded file name.
// Only the base name is used so uploads cannot escape the inbox.
func (c *Config) MediaInboxPath(name string) string {
	return filepath.Join(c.MediaInboxDir, filepath.Base(name))
}

func defaultMediaInbox() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "vantage", "media", "inbound")
	}
	return filepath.Join(home, ".openclaw", "media", "inbound")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}
