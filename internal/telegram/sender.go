package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/relay"
)

// maxMediaGroupSize is the Bot API limit for sendMediaGroup.
const maxMediaGroupSize = 10

// Sender writes relayed messages to Telegram as MarkdownV2.
type Sender struct {
	bot    *bot.Bot
	logger *slog.Logger
}

// NewSender creates a Sender on top of an existing bot client.
func NewSender(b *bot.Bot, logger *slog.Logger) *Sender {
	return &Sender{bot: b, logger: logger.With("component", "telegram_sender")}
}

func replyParameters(replyTo int) *models.ReplyParameters {
	if replyTo <= 0 {
		return nil
	}
	return &models.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
}

func noPreview() *models.LinkPreviewOptions {
	return &models.LinkPreviewOptions{IsDisabled: bot.True()}
}

// SendText sends body with link previews disabled and returns the new message id.
func (s *Sender) SendText(ctx context.Context, to config.Recipient, body string, replyTo int) (int, error) {
	msg, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             to.ChatID(),
		Text:               body,
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: noPreview(),
		ReplyParameters:    replyParameters(replyTo),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	return msg.ID, nil
}

// SendMediaGroup sends media as one album with caption on the first item and
// returns the ids of the created messages in order.
func (s *Sender) SendMediaGroup(ctx context.Context, to config.Recipient, media []relay.Media, caption string, replyTo int) ([]int, error) {
	if len(media) == 0 {
		return nil, fmt.Errorf("media group is empty")
	}
	if len(media) > maxMediaGroupSize {
		s.logger.WarnContext(ctx, "Media group too large, truncating", "items", len(media), "limit", maxMediaGroupSize)
		media = media[:maxMediaGroupSize]
	}

	items := make([]models.InputMedia, 0, len(media))
	for i, m := range media {
		var (
			text  string
			parse models.ParseMode
		)
		if i == 0 {
			text = caption
			parse = models.ParseModeMarkdown
		}

		switch m.Kind {
		case relay.MediaPhoto:
			items = append(items, &models.InputMediaPhoto{Media: m.URL, Caption: text, ParseMode: parse})
		case relay.MediaVideo:
			items = append(items, &models.InputMediaVideo{Media: m.URL, Caption: text, ParseMode: parse})
		case relay.MediaVoice:
			items = append(items, &models.InputMediaAudio{Media: m.URL, Caption: text, ParseMode: parse})
		default:
			return nil, fmt.Errorf("unsupported media kind %s", m.Kind)
		}
	}

	msgs, err := s.bot.SendMediaGroup(ctx, &bot.SendMediaGroupParams{
		ChatID:          to.ChatID(),
		Media:           items,
		ReplyParameters: replyParameters(replyTo),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send media group to %s: %w", to, err)
	}

	ids := make([]int, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// EditText replaces the text of a relayed text message.
func (s *Sender) EditText(ctx context.Context, to config.Recipient, messageID int, body string) error {
	_, err := s.bot.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:             to.ChatID(),
		MessageID:          messageID,
		Text:               body,
		ParseMode:          models.ParseModeMarkdown,
		LinkPreviewOptions: noPreview(),
	})
	if err != nil {
		return fmt.Errorf("failed to edit message %d in %s: %w", messageID, to, err)
	}
	return nil
}

// EditCaption replaces the caption of the first item of a relayed media group.
func (s *Sender) EditCaption(ctx context.Context, to config.Recipient, messageID int, caption string) error {
	_, err := s.bot.EditMessageCaption(ctx, &bot.EditMessageCaptionParams{
		ChatID:    to.ChatID(),
		MessageID: messageID,
		Caption:   caption,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("failed to edit caption of message %d in %s: %w", messageID, to, err)
	}
	return nil
}
