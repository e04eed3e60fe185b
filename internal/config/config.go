package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	botTokenVars = []string{"TELEGRAM_BOT_TOKEN", "TG_BOT_TOKEN", "BOT_TOKEN"}
	apiKeyVars   = []string{"NUCLIA_API_KEY", "API_KEY", "X_API_KEY"}
	apiTokenVars = []string{"API_TOKEN", "AUTH_TOKEN", "ACCESS_TOKEN", "BEARER_TOKEN", "TOKEN"}
)

type Config struct {
	BotToken string

	APIURL      string
	APIKey      string
	APIToken    string
	APITimeout  time.Duration
	APILanguage string

	MessageLimit      int
	MaxSourceTitles   int
	MaxHistoryTurns   int
	MaxAssistantChars int
	ProgressInterval  time.Duration

	Port    string
	DataDir string

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, after loading envFile
// (default ".env") if it exists.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	// the env file is optional, variables may already be set (e.g. in production)
	_ = godotenv.Load(envFile)

	cfg := &Config{
		BotToken:    firstEnv(botTokenVars...),
		APIURL:      os.Getenv("API_URL"),
		APIKey:      firstEnv(apiKeyVars...),
		APIToken:    firstEnv(apiTokenVars...),
		APILanguage: os.Getenv("API_LANGUAGE"),
		Port:        os.Getenv("PORT"),
		DataDir:     os.Getenv("DATA_DIR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
	}

	var err error
	if cfg.APITimeout, err = parseSecondsEnv("API_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProgressInterval, err = parseSecondsEnv("PROGRESS_INTERVAL", 4*time.Second); err != nil {
		return nil, err
	}
	for _, v := range []struct {
		key string
		dst *int
		def int
	}{
		{"MESSAGE_LIMIT", &cfg.MessageLimit, 3900},
		{"MAX_SOURCE_TITLES", &cfg.MaxSourceTitles, 5},
		{"MAX_HISTORY_TURNS", &cfg.MaxHistoryTurns, 20},
		{"MAX_ASSISTANT_CHARS", &cfg.MaxAssistantChars, 4000},
	} {
		if *v.dst, err = parseIntEnv(v.key, v.def); err != nil {
			return nil, err
		}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = "https://lbf7-hackaton.replit.app/ask"
	}
	if cfg.APILanguage == "" {
		cfg.APILanguage = "en"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	return cfg, nil
}

// RequireBotToken fails when no Telegram token is configured.
func (c *Config) RequireBotToken() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot token not found: set TELEGRAM_BOT_TOKEN in .env or environment")
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("env var %s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func parseSecondsEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || secs <= 0 {
		return 0, fmt.Errorf("env var %s must be a positive number of seconds, got %q", key, v)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
