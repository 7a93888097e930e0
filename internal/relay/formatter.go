package relay

import (
	"context"
	"strings"
)

// Formatter composes the MarkdownV2 body relayed for a VK message.
type Formatter struct {
	senders     *SenderResolver
	attachments *AttachmentResolver
}

// NewFormatter creates a formatter from its two resolvers.
func NewFormatter(senders *SenderResolver, attachments *AttachmentResolver) *Formatter {
	return &Formatter{senders: senders, attachments: attachments}
}

// Format returns the body and the media to send for message id. The body is
//
//	*sender*
//	text
//
//	attachments block
//
// with empty parts and trailing newlines dropped, so a media-only message has
// the bold sender as its caption. A chat action replaces the text entirely.
func (f *Formatter) Format(ctx context.Context, id int64, from, text string) (string, []Media) {
	sender := f.senders.Resolve(ctx, from)
	res := f.attachments.Resolve(ctx, id)

	body := res.Action
	if body == "" {
		body = FormatText(text)
	}

	var b strings.Builder
	b.WriteString(Bold(sender))
	b.WriteString("\n")
	b.WriteString(body)
	if body != "" {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(res.Text)

	return strings.TrimRight(b.String(), "\n"), res.Media
}
