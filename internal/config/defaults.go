package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultLogLevel = "info"

	DefaultVKAPIURL            = "https://api.vk.com/method"
	DefaultVKAPIVersion        = "5.199"
	DefaultVKPreviewLength     = 1
	DefaultVKRequestTimeout    = 30 * time.Second
	DefaultVKRequestsPerSecond = 3.0
	DefaultVKRequestBurst      = 3
	DefaultVKRequestAttempts   = 3
	DefaultVKLongPollWait      = 25
	DefaultVKLongPollMode      = 2
	DefaultVKLongPollVersion   = 3
	DefaultVKRetryDelay        = 5 * time.Second

	DefaultChatsFile          = "chats.json"
	DefaultGroupPeerThreshold = 2000000000

	DefaultDBPath           = "vkrelay.db"
	DefaultJournalRetention = 30 * 24 * time.Hour
)

// DefaultActions maps VK chat action types to the phrase shown after the
// sender name.
var DefaultActions = map[string]string{
	"chat_photo_update":        "изменил(а) фотографию",
	"chat_photo_remove":        "удалил(а) фотографию",
	"chat_create":              "создал(а) чат",
	"chat_title_update":        "обновил(а) название чата",
	"chat_invite_user":         "пригласил(а) пользователя",
	"chat_kick_user":           "исключил(а) пользователя",
	"chat_pin_message":         "закрепил(а) сообщение",
	"chat_unpin_message":       "открепил(а) сообщение",
	"chat_invite_user_by_link": "присоединился по ссылке",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("vk.api_url", DefaultVKAPIURL)
	v.SetDefault("vk.api_version", DefaultVKAPIVersion)
	v.SetDefault("vk.preview_length", DefaultVKPreviewLength)
	v.SetDefault("vk.request_timeout", DefaultVKRequestTimeout)
	v.SetDefault("vk.requests_per_second", DefaultVKRequestsPerSecond)
	v.SetDefault("vk.request_burst", DefaultVKRequestBurst)
	v.SetDefault("vk.request_attempts", DefaultVKRequestAttempts)
	v.SetDefault("vk.long_poll_wait", DefaultVKLongPollWait)
	v.SetDefault("vk.long_poll_mode", DefaultVKLongPollMode)
	v.SetDefault("vk.long_poll_version", DefaultVKLongPollVersion)
	v.SetDefault("vk.retry_delay", DefaultVKRetryDelay)

	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("relay.chats_file", DefaultChatsFile)
	v.SetDefault("relay.group_peer_threshold", DefaultGroupPeerThreshold)

	v.SetDefault("database.path", DefaultDBPath)
	v.SetDefault("database.journal_enabled", true)
	v.SetDefault("database.journal_retention", DefaultJournalRetention)

	v.SetDefault("scheduler.tasks", map[string]any{
		"journal_prune": map[string]any{
			"enabled":  true,
			"schedule": "0 15 * * * *",
		},
		"sql_maintenance": map[string]any{
			"enabled":  true,
			"schedule": "0 0 4 * * *",
		},
	})

	v.SetDefault("messages.welcome", "👋 VK relay is running. Messages from mapped VK chats are forwarded here.")
	v.SetDefault("messages.unauthorized", "🚫 Access denied.")
	v.SetDefault("messages.status_header", "📡 Relay status")
	v.SetDefault("messages.bot_sender", "БОТ")
	v.SetDefault("messages.unknown_sender", "???")
	v.SetDefault("messages.attachments_header", "Вложения")
	v.SetDefault("messages.attachments_unavailable", "Не удалось получить вложения")
	v.SetDefault("messages.unsupported", "Вложение не поддерживается")
	v.SetDefault("messages.video", "Видео")
	v.SetDefault("messages.post_from", "Публикация от")
	v.SetDefault("messages.unknown_author", "Неизвестно")
	v.SetDefault("messages.link", "Ссылка")
	v.SetDefault("messages.forwarded_from", "Пересланное сообщение от")
	v.SetDefault("messages.unknown_action", "выполнил(а) действие")

	actions := make(map[string]any, len(DefaultActions))
	for k, phrase := range DefaultActions {
		actions[k] = phrase
	}
	v.SetDefault("messages.actions", actions)
}
