package relay

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/vk"
)

// MessageSource fetches full VK messages by id.
type MessageSource interface {
	MessageByID(ctx context.Context, id int64) (*vk.Message, error)
}

// MediaKind is the Telegram media type an attachment is relayed as.
type MediaKind int

// Media kinds.
const (
	MediaPhoto MediaKind = iota + 1
	MediaVideo
	MediaVoice
)

func (k MediaKind) String() string {
	switch k {
	case MediaPhoto:
		return "photo"
	case MediaVideo:
		return "video"
	case MediaVoice:
		return "voice"
	default:
		return "unknown"
	}
}

// Media is one item of an outgoing media group, referenced by URL.
type Media struct {
	Kind MediaKind
	URL  string
}

// Resolution is what the attachment resolver extracted from a message.
type Resolution struct {
	// Media is sent as one media group, in attachment order.
	Media []Media
	// Text is the escaped description block, empty when nothing needs describing.
	Text string
	// Action is the escaped, italic phrase for a chat service message. When it
	// is set, Media and Text are empty.
	Action string
}

// AttachmentResolver fetches a message and splits its attachments into
// relayable media and description lines.
type AttachmentResolver struct {
	messages MessageSource
	senders  *SenderResolver
	phrases  config.MessagesConfig
	logger   *slog.Logger
}

// NewAttachmentResolver creates a resolver. senders labels forwarded messages.
func NewAttachmentResolver(messages MessageSource, senders *SenderResolver, phrases config.MessagesConfig, logger *slog.Logger) *AttachmentResolver {
	return &AttachmentResolver{
		messages: messages,
		senders:  senders,
		phrases:  phrases,
		logger:   logger.With("component", "attachment_resolver"),
	}
}

// Resolve fetches message id and describes its attachments, forwarded
// messages and action. A failed fetch yields a single placeholder line.
func (r *AttachmentResolver) Resolve(ctx context.Context, id int64) Resolution {
	msg, err := r.messages.MessageByID(ctx, id)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to fetch message attachments", "message_id", id, "error", err)
		return Resolution{Text: r.block([]string{Escape(r.phrases.AttachmentsUnavailable)})}
	}

	if msg.Action != nil {
		return Resolution{Action: r.actionPhrase(msg.Action)}
	}

	var (
		media []Media
		lines []string
	)
	for _, a := range msg.Attachments {
		item, line := r.describe(a)
		if item != nil {
			media = append(media, *item)
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	for _, fwd := range msg.FwdMessages {
		lines = append(lines, r.forwardLine(ctx, fwd))
	}

	return Resolution{Media: media, Text: r.block(lines)}
}

func (r *AttachmentResolver) describe(a vk.Attachment) (*Media, string) {
	switch a.Kind {
	case vk.KindPhoto:
		if u := a.Photo.BestURL(); u != "" {
			return &Media{Kind: MediaPhoto, URL: u}, ""
		}
	case vk.KindSticker:
		return &Media{Kind: MediaPhoto, URL: fmt.Sprintf("%ssticker/1-%d-128b", vkBaseURL, a.Sticker.StickerID)}, ""
	case vk.KindAudioMessage:
		if u := a.AudioMessage.URL(); u != "" {
			return &Media{Kind: MediaVoice, URL: u}, ""
		}
	case vk.KindDoc:
		line := Link(Escape(a.Doc.Title), a.Doc.URL)
		if u, ok := a.Doc.VideoURL(); ok {
			return &Media{Kind: MediaVideo, URL: u}, line
		}
		return nil, line
	case vk.KindVideo:
		if u, ok := a.Video.FileURL(); ok {
			return &Media{Kind: MediaVideo, URL: u}, ""
		}
		return nil, Link(Escape(r.phrases.Video), a.Video.Player)
	case vk.KindPoll:
		return nil, "📊 " + Italic(Escape(a.Poll.Question))
	case vk.KindWall:
		label := Escape(r.phrases.PostFrom + " " + r.postAuthor(a.Wall.From))
		return nil, Link(label, fmt.Sprintf("%swall%d_%d", vkBaseURL, a.Wall.WallOwner(), a.Wall.ID))
	case vk.KindLink:
		label := Escape(a.Link.Title) + ` \| ` + Escape(a.Link.Caption)
		return nil, Escape(r.phrases.Link) + " " + Italic(Link(label, a.Link.URL))
	}

	r.logger.Debug("Attachment not relayable", "type", a.RawType, "kind", a.Kind)
	return nil, Escape(r.phrases.Unsupported)
}

func (r *AttachmentResolver) postAuthor(a vk.PostAuthor) string {
	switch a.Kind {
	case vk.AuthorProfile:
		return strings.TrimSpace(a.FirstName + " " + a.LastName)
	case vk.AuthorGroup:
		return a.Name
	default:
		return r.phrases.UnknownAuthor
	}
}

// forwardLine renders a forwarded message as an expandable quote.
func (r *AttachmentResolver) forwardLine(ctx context.Context, fwd vk.Message) string {
	sender := r.senders.Resolve(ctx, fmt.Sprint(fwd.FromID))
	quoted := strings.Join(strings.Split(Escape(fwd.Text), "\n"), "\n>")
	return Escape(r.phrases.ForwardedFrom) + " " + sender + "\n>" + quoted + "||"
}

func (r *AttachmentResolver) actionPhrase(a *vk.Action) string {
	phrase, ok := r.phrases.Actions[string(a.Type)]
	if !ok {
		r.logger.Debug("Unknown chat action", "type", a.Type)
		phrase = r.phrases.UnknownAction
	}
	return Italic(Escape(phrase))
}

func (r *AttachmentResolver) block(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return "🔗 " + Bold(Escape(r.phrases.AttachmentsHeader)) + ":\n" + strings.Join(lines, "\n")
}
