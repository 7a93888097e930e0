package relay

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/vk"
)

// UserSource looks up VK user profiles.
type UserSource interface {
	User(ctx context.Context, id int64) (*vk.User, error)
}

// SenderResolver turns a VK actor id into an escaped display label.
type SenderResolver struct {
	users    UserSource
	messages config.MessagesConfig
	logger   *slog.Logger
}

// NewSenderResolver creates a resolver backed by users.
func NewSenderResolver(users UserSource, messages config.MessagesConfig, logger *slog.Logger) *SenderResolver {
	return &SenderResolver{
		users:    users,
		messages: messages,
		logger:   logger.With("component", "sender_resolver"),
	}
}

// Resolve returns a profile link for positive user ids, the bot label for
// communities (zero or negative ids) and the unknown label when the id does
// not parse or the lookup fails. It never fails.
func (r *SenderResolver) Resolve(ctx context.Context, from string) string {
	id, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil {
		r.logger.WarnContext(ctx, "Unparsable sender id", "from", from, "error", err)
		return Escape(r.messages.UnknownSender)
	}
	if id <= 0 {
		return Escape(r.messages.BotSender)
	}

	user, err := r.users.User(ctx, id)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to look up sender", "user_id", id, "error", err)
		return Escape(r.messages.UnknownSender)
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	return Link(Escape(name), vkBaseURL+"id"+strconv.FormatInt(id, 10))
}
