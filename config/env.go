package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything the bot reads from the environment.
type Config struct {
	SlackBotToken string
	SlackAppToken string
	DatabaseURL   string
	RedisURL      string // optional, claim cache disabled when empty
	Port          string
	LogLevel      string

	adminIDs map[string]struct{}
}

// Load reads a .env file when present and resolves the process configuration.
// Missing required variables fail startup.
func Load() (*Config, error) {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		SlackBotToken: os.Getenv("SLACK_BOT_TOKEN"),
		SlackAppToken: os.Getenv("SLACK_APP_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		Port:          os.Getenv("PORT"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		adminIDs:      parseAdminIDs(os.Getenv("ADMIN_USER_IDS")),
	}

	if cfg.SlackBotToken == "" {
		return nil, fmt.Errorf("config: SLACK_BOT_TOKEN is required")
	}
	if cfg.SlackAppToken == "" {
		return nil, fmt.Errorf("config: SLACK_APP_TOKEN is required")
	}
	if !strings.HasPrefix(cfg.SlackAppToken, "xapp-") {
		return nil, fmt.Errorf("config: SLACK_APP_TOKEN must start with xapp-")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// IsAdmin reports whether callerID is on the configured allow-list. An empty
// allow-list locks everyone out of the admin surface.
func (c *Config) IsAdmin(callerID string) bool {
	_, ok := c.adminIDs[callerID]
	return ok
}

// AdminCount reports how many identities the allow-list holds.
func (c *Config) AdminCount() int {
	return len(c.adminIDs)
}

// parseAdminIDs accepts a single id or a comma-separated set.
func parseAdminIDs(raw string) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids
}
