package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultGigaChatModel   = "GigaChat-2-Pro"
	DefaultCredentialsFile = "credentials.json"
	DefaultValkeyURL       = "localhost:6379"
	DefaultMetricsAddr     = ":9090"
	DefaultTimezone        = "Europe/Moscow"
)

// Config holds all runtime configuration for the bot.
type Config struct {
	// TelegramToken is the Telegram Bot API token (required).
	TelegramToken string

	// GigaChatAuthKey is the base64 authorization key for the GigaChat API (required).
	GigaChatAuthKey string

	// GigaChatModel is the model used for transcription and extraction.
	GigaChatModel string

	// GoogleCredentialsFile is the path to the Google OAuth client secrets JSON.
	GoogleCredentialsFile string

	// ValkeyURL is the address of the Valkey/Redis server (host:port).
	ValkeyURL string

	// ValkeyPassword is the optional password for Valkey authentication.
	ValkeyPassword string

	// ValkeyDB is the Valkey database number.
	ValkeyDB int

	// MetricsEnabled determines whether the metrics server is started.
	MetricsEnabled bool

	// MetricsAddr is the listen address for the metrics server.
	MetricsAddr string

	// Timezone is the IANA timezone applied to created events.
	Timezone string

	// Debug enables debug-level logging.
	Debug bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (*Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		GigaChatAuthKey:       os.Getenv("GIGACHAT_AUTH_KEY"),
		GigaChatModel:         getEnv("GIGACHAT_MODEL", DefaultGigaChatModel),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", DefaultCredentialsFile),
		ValkeyURL:             getEnv("VALKEY_URL", DefaultValkeyURL),
		ValkeyPassword:        os.Getenv("VALKEY_PASSWORD"),
		ValkeyDB:              getEnvInt("VALKEY_DB", 0),
		MetricsEnabled:        getEnvBool("METRICS_ENABLED", true),
		MetricsAddr:           getEnv("METRICS_ADDR", DefaultMetricsAddr),
		Timezone:              getEnv("DEFAULT_TIMEZONE", DefaultTimezone),
		Debug:                 getEnvBool("DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required settings are present.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return missingVarError("TELEGRAM_BOT_TOKEN")
	}
	if c.GigaChatAuthKey == "" {
		return missingVarError("GIGACHAT_AUTH_KEY")
	}
	return nil
}

// missingVarError names the variable and how to set it, so startup failures
// are actionable without reading the source.
func missingVarError(name string) error {
	return fmt.Errorf("%s is not set: export %s=... or add it to a .env file", name, name)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
