package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/database"
)

// statusWindow is how far back /relay_status counts journal outcomes.
const statusWindow = 24 * time.Hour

// NewStatusHandler returns a handler for the /relay_status command.
func NewStatusHandler(deps HandlerDeps) bot.HandlerFunc {
	return statusHandler{deps}.Handle
}

type statusHandler struct {
	deps HandlerDeps
}

func (h statusHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "relay_status")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	var counts map[database.Outcome]int
	if h.deps.Store != nil && h.deps.Config.Database.JournalEnabled {
		var err error
		counts, err = h.deps.Store.CountJournalOutcomes(ctx, time.Now().Add(-statusWindow))
		if err != nil {
			log.ErrorContext(ctx, "Failed to count journal outcomes", "error", err)
		}
	}

	tracked := 0
	if h.deps.Correlations != nil {
		tracked = h.deps.Correlations.Len()
	}

	text := buildStatusText(h.deps.Config.Messages.StatusHeader, h.deps.Chats, tracked, counts)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send status message", "error", err, "chat_id", chatID)
	}
}

// buildStatusText renders the status report. A nil counts map means the
// journal is unavailable.
func buildStatusText(header string, chats config.ChatMapping, tracked int, counts map[database.Outcome]int) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Mapped chats: %d\n", len(chats))
	for _, peer := range chats.PeerIDs() {
		fmt.Fprintf(&sb, "  %d → %s\n", peer, chats[peer])
	}
	fmt.Fprintf(&sb, "Tracked messages: %d\n", tracked)

	if counts == nil {
		sb.WriteString("Journal: disabled")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Last %s:", statusWindow)
	if len(counts) == 0 {
		sb.WriteString(" no events")
		return sb.String()
	}

	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, string(outcome))
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		fmt.Fprintf(&sb, "\n  %s: %d", outcome, counts[database.Outcome(outcome)])
	}
	return sb.String()
}
