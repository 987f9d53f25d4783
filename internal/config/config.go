package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Discord configuration
	DiscordToken  string
	CommandPrefix string

	// Activity window and pacing
	DaysToCheck    int
	RateLimitDelay time.Duration

	// Role and channel selection
	RolesToTrack    []string
	AuthorizedRoles []string
	ChannelsToCheck []string

	// Schedule configuration
	ReportSchedule string // "", "daily", "weekly" or a cron expression with seconds
	ReportGuildID  string
	ReportChannel  string

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// intKeys must parse as integers when set
var intKeys = []string{"DAYS_TO_CHECK", "RATE_LIMIT_DELAY", "SMTP_PORT"}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := checkIntEnv(intKeys...); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DiscordToken:  getEnv("DISCORD_BOT_TOKEN", ""),
		CommandPrefix: getEnv("COMMAND_PREFIX", "!"),

		DaysToCheck:    getIntEnv("DAYS_TO_CHECK", 7),
		RateLimitDelay: time.Duration(getIntEnv("RATE_LIMIT_DELAY", 1)) * time.Second,

		RolesToTrack:    getSliceEnv("ROLES_TO_TRACK", nil),
		AuthorizedRoles: getSliceEnv("AUTHORIZED_ROLES", nil),
		ChannelsToCheck: getSliceEnv("CHANNELS_TO_CHECK", nil),

		ReportSchedule: getEnv("REPORT_SCHEDULE", ""),
		ReportGuildID:  getEnv("REPORT_GUILD_ID", ""),
		ReportChannel:  getEnv("REPORT_CHANNEL_ID", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "activity-reports"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN is required")
	}

	if c.DaysToCheck <= 0 {
		return fmt.Errorf("DAYS_TO_CHECK must be greater than zero")
	}

	if c.RateLimitDelay < 0 {
		return fmt.Errorf("RATE_LIMIT_DELAY must not be negative")
	}

	for name, ids := range map[string][]string{
		"ROLES_TO_TRACK":    c.RolesToTrack,
		"AUTHORIZED_ROLES":  c.AuthorizedRoles,
		"CHANNELS_TO_CHECK": c.ChannelsToCheck,
	} {
		for _, id := range ids {
			if _, err := strconv.ParseUint(id, 10, 64); err != nil {
				return fmt.Errorf("%s contains an invalid id %q", name, id)
			}
		}
	}

	if c.ReportSchedule != "" {
		if c.ReportGuildID == "" || c.ReportChannel == "" {
			return fmt.Errorf("REPORT_GUILD_ID and REPORT_CHANNEL_ID are required when REPORT_SCHEDULE is set")
		}
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// ActivityCommand returns the full command text that triggers a report, e.g. "!activity"
func (c *Config) ActivityCommand() string {
	return c.CommandPrefix + "activity"
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func checkIntEnv(keys ...string) error {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
				return fmt.Errorf("%s must be a whole number, got %q", key, value)
			}
		}
	}
	return nil
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
