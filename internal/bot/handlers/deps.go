package handlers

import (
	"log/slog"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/database"
	"github.com/edgard/vkrelay/internal/relay"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Store        database.Store
	Correlations *relay.CorrelationStore
	Chats        config.ChatMapping
}
