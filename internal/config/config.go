package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	LogLevel       string
	RequestTimeout time.Duration

	Store    StoreConfig
	OpenAI   OpenAIConfig
	Search   SearchConfig
	Chat     ChatConfig
	Telegram TelegramConfig
}

type StoreConfig struct {
	// Type selects the conversation store backend: "sqlite" or "memory".
	Type string
	Path string
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
}

type SearchConfig struct {
	APIKey     string
	CSEID      string
	NumResults int
}

type ChatConfig struct {
	// HistoryLimit is how many recent turns are replayed per request.
	HistoryLimit int
	// MaxHistoryChars is the character budget before summarization kicks in.
	MaxHistoryChars int
	// SummaryFallbackTurns is how many raw turns survive a failed summarization.
	SummaryFallbackTurns int
	Cooldown             time.Duration
}

type TelegramConfig struct {
	BotToken      string
	APIBaseURL    string
	WebhookSecret string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	reqTimeout, err := parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_CLIENT_TIMEOUT: %w", err)
	}
	cfg.RequestTimeout = reqTimeout

	cfg.Store = StoreConfig{
		Type: getEnv("STORE_TYPE", "sqlite"),
		Path: getEnv("DB_PATH", "chat_history.db"),
	}

	cfg.OpenAI = OpenAIConfig{
		APIKey:     getEnv("OPENAI_API_KEY", ""),
		BaseURL:    getEnv("OPENAI_BASE_URL", ""),
		ChatModel:  getEnv("CHAT_MODEL", "gpt-3.5-turbo"),
		ImageModel: getEnv("IMAGE_MODEL", "gpt-image-1"),
	}

	numResults, err := parseIntDefault(getEnv("SEARCH_RESULTS", ""), 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse SEARCH_RESULTS: %w", err)
	}
	cfg.Search = SearchConfig{
		APIKey:     getEnv("GOOGLE_API_KEY", ""),
		CSEID:      getEnv("GOOGLE_CSE_ID", ""),
		NumResults: numResults,
	}

	historyLimit, err := parseIntDefault(getEnv("HISTORY_LIMIT", ""), 30)
	if err != nil {
		return Config{}, fmt.Errorf("parse HISTORY_LIMIT: %w", err)
	}
	maxChars, err := parseIntDefault(getEnv("MAX_HISTORY_CHARS", ""), 3000)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_HISTORY_CHARS: %w", err)
	}
	fallbackTurns, err := parseIntDefault(getEnv("SUMMARY_FALLBACK_TURNS", ""), 10)
	if err != nil {
		return Config{}, fmt.Errorf("parse SUMMARY_FALLBACK_TURNS: %w", err)
	}
	cooldown, err := parseDuration(getEnv("COOLDOWN", "1s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse COOLDOWN: %w", err)
	}
	cfg.Chat = ChatConfig{
		HistoryLimit:         historyLimit,
		MaxHistoryChars:      maxChars,
		SummaryFallbackTurns: fallbackTurns,
		Cooldown:             cooldown,
	}

	cfg.Telegram = TelegramConfig{
		BotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIBaseURL:    getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
		WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}

	return cfg, nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseIntDefault(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
