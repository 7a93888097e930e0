// Package relay turns VK long-poll events into Telegram messages: it parses
// events, formats MarkdownV2 bodies with attachments and keeps the mapping
// between relayed messages so edits and replies can follow them.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/database"
	"github.com/edgard/vkrelay/internal/vk"
)

// Source is the read side of VK used by the relay.
type Source interface {
	MessageSource
	UserSource
	MessageByConversationID(ctx context.Context, peerID, conversationMessageID int64) (*vk.Message, error)
}

// Destination is the Telegram side. replyTo is 0 when the message is not a reply.
type Destination interface {
	SendText(ctx context.Context, to config.Recipient, body string, replyTo int) (int, error)
	SendMediaGroup(ctx context.Context, to config.Recipient, media []Media, caption string, replyTo int) ([]int, error)
	EditText(ctx context.Context, to config.Recipient, messageID int, body string) error
	EditCaption(ctx context.Context, to config.Recipient, messageID int, caption string) error
}

// Journal records dispatch outcomes. It is optional.
type Journal interface {
	SaveJournalEntry(ctx context.Context, entry *database.JournalEntry) error
}

// Deps holds what the Dispatcher needs.
type Deps struct {
	Logger       *slog.Logger
	Config       *config.Config
	Chats        config.ChatMapping
	Source       Source
	Destination  Destination
	Correlations *CorrelationStore
	Journal      Journal
}

// Journal detail reasons.
const (
	reasonUnknownChat        = "unknown_chat"
	reasonMissingCorrelation = "missing_correlation"
	reasonMalformed          = "malformed"
)

// Dispatcher routes events to the send or edit path. Handle is not safe for
// concurrent use; events are meant to be handled one at a time in order.
type Dispatcher struct {
	logger       *slog.Logger
	threshold    int64
	chats        config.ChatMapping
	source       Source
	dest         Destination
	formatter    *Formatter
	correlations *CorrelationStore
	journal      Journal
}

// NewDispatcher wires the resolvers and formatter around deps.Source.
func NewDispatcher(deps Deps) *Dispatcher {
	logger := deps.Logger.With("component", "dispatcher")
	senders := NewSenderResolver(deps.Source, deps.Config.Messages, deps.Logger)
	attachments := NewAttachmentResolver(deps.Source, senders, deps.Config.Messages, deps.Logger)

	correlations := deps.Correlations
	if correlations == nil {
		correlations = NewCorrelationStore()
	}

	return &Dispatcher{
		logger:       logger,
		threshold:    deps.Config.Relay.GroupPeerThreshold,
		chats:        deps.Chats,
		source:       deps.Source,
		dest:         deps.Destination,
		formatter:    NewFormatter(senders, attachments),
		correlations: correlations,
		journal:      deps.Journal,
	}
}

// Handle processes one raw long-poll update. Failures are logged and
// journaled; they never stop the caller.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) {
	ev, err := ParseEvent(raw)
	if err != nil {
		d.logger.WarnContext(ctx, "Dropping malformed event", "error", err, "raw", string(raw))
		d.record(ctx, d.logger, &database.JournalEntry{
			TraceID: uuid.NewString(),
			Outcome: database.OutcomeDropped,
			Detail:  reasonMalformed,
		})
		return
	}
	if !ev.Relayable() {
		return
	}

	// Private conversations are never relayed or journaled.
	if ev.PeerID < d.threshold {
		return
	}

	traceID := uuid.NewString()
	log := d.logger.With("trace_id", traceID, "event_type", int64(ev.Type), "message_id", ev.MessageID, "peer_id", ev.PeerID)
	entry := &database.JournalEntry{
		TraceID:         traceID,
		EventType:       int64(ev.Type),
		SourceMessageID: ev.MessageID,
		SourcePeerID:    ev.PeerID,
	}

	chat, ok := d.chats[ev.PeerID]
	if !ok {
		log.DebugContext(ctx, "No Telegram chat mapped for peer")
		entry.Outcome = database.OutcomeDropped
		entry.Detail = reasonUnknownChat
		d.record(ctx, log, entry)
		return
	}
	entry.DestinationChat = chat.String()

	switch ev.Type {
	case EventNewMessage:
		d.relayNew(ctx, log, ev, chat, entry)
	case EventEditMessage:
		d.relayEdit(ctx, log, ev, chat, entry)
	}
	d.record(ctx, log, entry)
}

func (d *Dispatcher) relayNew(ctx context.Context, log *slog.Logger, ev Event, chat config.Recipient, entry *database.JournalEntry) {
	log.InfoContext(ctx, "Relaying new message", "from", ev.From, "chat", chat.String())

	replyTo := d.resolveReply(ctx, log, ev)
	body, media := d.formatter.Format(ctx, ev.MessageID, ev.From, ev.Text)

	var ref DestinationRef
	if len(media) > 0 {
		ids, err := d.dest.SendMediaGroup(ctx, chat, media, body, replyTo)
		if err == nil && len(ids) == 0 {
			err = fmt.Errorf("media group returned no messages")
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to send media group", "media", len(media), "error", err)
			entry.Outcome = database.OutcomeFailed
			entry.Detail = err.Error()
			return
		}
		ref = DestinationRef{Kind: RefCaption, MessageID: ids[0]}
		entry.Outcome = database.OutcomeRelayedMedia
	} else {
		id, err := d.dest.SendText(ctx, chat, body, replyTo)
		if err != nil {
			log.ErrorContext(ctx, "Failed to send message", "error", err)
			entry.Outcome = database.OutcomeFailed
			entry.Detail = err.Error()
			return
		}
		ref = DestinationRef{Kind: RefText, MessageID: id}
		entry.Outcome = database.OutcomeRelayedText
	}

	d.correlations.Put(ev.MessageID, ref)
	entry.DestinationMessageID = sql.NullInt64{Int64: int64(ref.MessageID), Valid: true}
	log.DebugContext(ctx, "Message relayed", "destination_message_id", ref.MessageID, "kind", ref.Kind.String())
}

func (d *Dispatcher) relayEdit(ctx context.Context, log *slog.Logger, ev Event, chat config.Recipient, entry *database.JournalEntry) {
	ref, ok := d.correlations.Get(ev.MessageID)
	if !ok {
		log.DebugContext(ctx, "Edited message was never relayed, skipping")
		entry.Outcome = database.OutcomeDropped
		entry.Detail = reasonMissingCorrelation
		return
	}
	entry.DestinationMessageID = sql.NullInt64{Int64: int64(ref.MessageID), Valid: true}

	log.InfoContext(ctx, "Relaying edit", "destination_message_id", ref.MessageID, "kind", ref.Kind.String())
	body, _ := d.formatter.Format(ctx, ev.MessageID, ev.From, ev.Text)

	var err error
	switch ref.Kind {
	case RefCaption:
		err = d.dest.EditCaption(ctx, chat, ref.MessageID, body)
		entry.Outcome = database.OutcomeEditedCaption
	default:
		err = d.dest.EditText(ctx, chat, ref.MessageID, body)
		entry.Outcome = database.OutcomeEditedText
	}
	if err != nil {
		log.ErrorContext(ctx, "Failed to edit message", "error", err)
		entry.Outcome = database.OutcomeFailed
		entry.Detail = err.Error()
	}
}

// resolveReply maps the replied-to VK message onto the Telegram message it
// was relayed as. Any failure yields 0, i.e. no reply link.
func (d *Dispatcher) resolveReply(ctx context.Context, log *slog.Logger, ev Event) int {
	if ev.ReplyTo == 0 {
		return 0
	}

	msg, err := d.source.MessageByConversationID(ctx, ev.PeerID, ev.ReplyTo)
	if err != nil {
		log.DebugContext(ctx, "Failed to resolve replied message", "conversation_message_id", ev.ReplyTo, "error", err)
		return 0
	}

	ref, ok := d.correlations.Get(msg.ID)
	if !ok {
		log.DebugContext(ctx, "Replied message was never relayed", "reply_message_id", msg.ID)
		return 0
	}
	return ref.MessageID
}

func (d *Dispatcher) record(ctx context.Context, log *slog.Logger, entry *database.JournalEntry) {
	if d.journal == nil {
		return
	}
	if err := d.journal.SaveJournalEntry(ctx, entry); err != nil {
		log.WarnContext(ctx, "Failed to write relay journal", "error", err)
	}
}
