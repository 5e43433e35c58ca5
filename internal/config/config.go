package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings. Values come from an optional
// YAML file, overridden by environment variables.
type Config struct {
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIModel   string `yaml:"openai_model"`
	MaxTokens     int    `yaml:"max_tokens"`
	CharsPerToken int    `yaml:"chars_per_token"`

	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`

	SlackBotToken       string `yaml:"slack_bot_token"`
	SlackDefaultChannel string `yaml:"slack_default_channel"`

	Port    string `yaml:"port"`
	DataDir string `yaml:"data_dir"`
}

// Load builds the configuration. file may be empty; when set it must
// exist and parse. Environment variables (optionally from a .env file)
// take precedence over file values.
func Load(file string) (*Config, error) {
	// .env is optional — env vars may already be set (e.g. in production)
	_ = godotenv.Load()

	cfg := &Config{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	overrideString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	overrideString(&cfg.OpenAIModel, "OPENAI_MODEL")
	overrideInt(&cfg.MaxTokens, "MAX_TOKENS")
	overrideInt(&cfg.CharsPerToken, "CHARS_PER_TOKEN")
	overrideString(&cfg.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	overrideString(&cfg.TelegramChatID, "TELEGRAM_CHAT_ID")
	overrideString(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	overrideString(&cfg.SlackDefaultChannel, "SLACK_DEFAULT_CHANNEL")
	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.DataDir, "DATA_DIR")

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
