// Package config provides configuration loading, validation, and management
// for the relay. It reads a YAML file, applies defaults and environment
// overrides through viper, and validates the result.
package config

import (
	"errors"
	"time"

	"github.com/go-telegram/bot/models"
)

// ErrConfiguration marks every error caused by invalid or unreadable configuration.
var ErrConfiguration = errors.New("configuration error")

// Config is the root configuration of the relay.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	VK        VKConfig        `mapstructure:"vk"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Relay     RelayConfig     `mapstructure:"relay"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls slog output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// VKConfig configures the VK API client and the long-poll loop.
type VKConfig struct {
	Token             string        `mapstructure:"token"               validate:"required"`
	APIURL            string        `mapstructure:"api_url"             validate:"required,url"`
	APIVersion        string        `mapstructure:"api_version"         validate:"required"`
	PreviewLength     int           `mapstructure:"preview_length"      validate:"gte=0"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"     validate:"min=1s,max=5m"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	RequestBurst      int           `mapstructure:"request_burst"       validate:"gte=1"`
	RequestAttempts   uint          `mapstructure:"request_attempts"    validate:"min=1,max=10"`
	LongPollWait      int           `mapstructure:"long_poll_wait"      validate:"min=1,max=90"`
	LongPollMode      int           `mapstructure:"long_poll_mode"      validate:"gte=0"`
	LongPollVersion   int           `mapstructure:"long_poll_version"   validate:"gte=0"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"         validate:"min=100ms,max=10m"`
}

// TelegramConfig configures the destination bot.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"gte=0"`

	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-" validate:"-"`
}

// RelayConfig configures event routing.
type RelayConfig struct {
	ChatsFile          string `mapstructure:"chats_file"           validate:"required"`
	GroupPeerThreshold int64  `mapstructure:"group_peer_threshold" validate:"gt=0"`
}

// DatabaseConfig configures the SQLite relay journal.
type DatabaseConfig struct {
	Path             string        `mapstructure:"path"              validate:"required"`
	JournalEnabled   bool          `mapstructure:"journal_enabled"`
	JournalRetention time.Duration `mapstructure:"journal_retention" validate:"min=1h"`
}

// SchedulerConfig lists the maintenance tasks by name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Schedules are six-field cron
// expressions (with seconds).
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-visible phrase. Relay phrases are plain
// text; they are escaped for MarkdownV2 when a message is formatted.
type MessagesConfig struct {
	Welcome      string `mapstructure:"welcome"       validate:"required"`
	Unauthorized string `mapstructure:"unauthorized"  validate:"required"`
	StatusHeader string `mapstructure:"status_header" validate:"required"`

	BotSender     string `mapstructure:"bot_sender"     validate:"required"`
	UnknownSender string `mapstructure:"unknown_sender" validate:"required"`

	AttachmentsHeader      string `mapstructure:"attachments_header"      validate:"required"`
	AttachmentsUnavailable string `mapstructure:"attachments_unavailable" validate:"required"`
	Unsupported            string `mapstructure:"unsupported"             validate:"required"`
	Video                  string `mapstructure:"video"                   validate:"required"`
	PostFrom               string `mapstructure:"post_from"               validate:"required"`
	UnknownAuthor          string `mapstructure:"unknown_author"          validate:"required"`
	Link                   string `mapstructure:"link"                    validate:"required"`
	ForwardedFrom          string `mapstructure:"forwarded_from"          validate:"required"`

	Actions       map[string]string `mapstructure:"actions"`
	UnknownAction string            `mapstructure:"unknown_action" validate:"required"`
}
