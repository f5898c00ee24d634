package bot

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long-poll timeout for Telegram updates
	UpdateTimeoutSeconds int
	// Hour of day assigned to newly registered users for reminders
	DefaultNotificationHour int
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeoutSeconds:    30,
		DefaultNotificationHour: 9,
	}
}
