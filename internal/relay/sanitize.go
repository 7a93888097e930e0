package relay

import (
	"html"
	"regexp"
	"strings"

	"github.com/go-telegram/bot"
)

const vkBaseURL = "https://vk.com/"

// mentionSentinel stands in for a mention while the surrounding text is
// escaped. It is stripped from input first, so every occurrence after the
// substitution corresponds to exactly one captured mention, in order.
const mentionSentinel = "\x01"

// mentionPattern matches VK inline mentions: [id123|Name] and [club45|Name].
var mentionPattern = regexp.MustCompile(`\[((?:id|club)\d+)\|([^\]]+)\]`)

// Escape decodes VK's HTML-ish text and escapes it for MarkdownV2: <br>
// becomes a newline, entities are decoded, backslashes are doubled and every
// MarkdownV2 special character gets a backslash.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, `\`, `\\`)
	return bot.EscapeMarkdown(s)
}

// EscapeURL escapes the characters MarkdownV2 reserves inside a link target.
func EscapeURL(u string) string {
	u = strings.ReplaceAll(u, `\`, `\\`)
	return strings.ReplaceAll(u, ")", `\)`)
}

// Link renders an inline link. label must already be escaped.
func Link(label, target string) string {
	return "[" + label + "](" + EscapeURL(target) + ")"
}

// Italic wraps already escaped text in underscores.
func Italic(escaped string) string {
	return "_" + escaped + "_"
}

// Bold wraps already escaped text in asterisks.
func Bold(escaped string) string {
	return "*" + escaped + "*"
}

// FormatText escapes message text and turns VK inline mentions into links to
// the mentioned profile or community. The link markup survives escaping
// because mentions are replaced by a sentinel before the text is escaped and
// reinserted afterwards.
func FormatText(text string) string {
	text = strings.ReplaceAll(text, mentionSentinel, "")

	var links []string
	text = mentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		groups := mentionPattern.FindStringSubmatch(m)
		links = append(links, Link(Escape(groups[2]), vkBaseURL+groups[1]))
		return mentionSentinel
	})

	text = Escape(text)
	for _, l := range links {
		text = strings.Replace(text, mentionSentinel, l, 1)
	}
	return text
}
