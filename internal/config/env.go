package config

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyEnv overlays the supported environment variables onto cfg. Unset or
// empty variables are ignored. getenv is usually os.Getenv.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("BOT_TOKEN"); v != "" {
		cfg.BotToken = v
	}
	if v := getenv("WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := getenv("WEBHOOK_SECRET"); v != "" {
		cfg.WebhookSecret = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := getenv("PORT"); v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("PORT must be a whole number (got %q)", v)
		}
		cfg.Port = n
	}
	if v := getenv("WEB_SERVER"); v != "" {
		cfg.WebServer = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v := getenv("ADMIN_IDS"); v != "" {
		ids, err := ParseIDList(v)
		if err != nil {
			return fmt.Errorf("ADMIN_IDS: %w", err)
		}
		cfg.AdminIDs = ids
	}
	return nil
}

// ParseIDList parses a comma-separated list of integer ids, ignoring empty
// entries.
func ParseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
