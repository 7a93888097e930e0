package relay

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrMalformedEvent is returned for long-poll updates that lack a required
// field or carry one of the wrong type.
var ErrMalformedEvent = errors.New("malformed event")

// EventType is the leading code of a long-poll update.
type EventType int64

// Update codes the relay acts on. Every other code is ignored.
const (
	EventNewMessage  EventType = 4
	EventEditMessage EventType = 5
)

// Event is a typed long-poll update. Only Type is populated for codes other
// than EventNewMessage and EventEditMessage.
type Event struct {
	Type      EventType
	MessageID int64
	PeerID    int64
	Text      string
	// From is the actor id as VK sends it, a decimal string.
	From string
	// ReplyTo is the conversation-local id of the replied-to message, 0 if none.
	ReplyTo int64
}

// Relayable reports whether the event is a new or edited message.
func (e Event) Relayable() bool {
	return e.Type == EventNewMessage || e.Type == EventEditMessage
}

// ParseEvent decodes one update: [code, msg_id, flags, peer_id, ts, text,
// {"from": "<id>"}, {"reply": "{\"conversation_message_id\":N}"}, ...].
// A reply marker that cannot be decoded is dropped; the event is kept.
func ParseEvent(raw []byte) (Event, error) {
	if !gjson.ValidBytes(raw) {
		return Event{}, fmt.Errorf("%w: invalid JSON", ErrMalformedEvent)
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return Event{}, fmt.Errorf("%w: update is not an array", ErrMalformedEvent)
	}

	code := root.Get("0")
	if code.Type != gjson.Number {
		return Event{}, fmt.Errorf("%w: missing event code", ErrMalformedEvent)
	}
	ev := Event{Type: EventType(code.Int())}
	if !ev.Relayable() {
		return ev, nil
	}

	msgID := root.Get("1")
	if msgID.Type != gjson.Number {
		return Event{}, fmt.Errorf("%w: message id is not a number", ErrMalformedEvent)
	}
	peerID := root.Get("3")
	if peerID.Type != gjson.Number {
		return Event{}, fmt.Errorf("%w: peer id is not a number", ErrMalformedEvent)
	}
	text := root.Get("5")
	if text.Type != gjson.String {
		return Event{}, fmt.Errorf("%w: text is not a string", ErrMalformedEvent)
	}
	from := root.Get("6.from")
	if from.Type != gjson.String {
		return Event{}, fmt.Errorf("%w: missing sender", ErrMalformedEvent)
	}

	ev.MessageID = msgID.Int()
	ev.PeerID = peerID.Int()
	ev.Text = text.String()
	ev.From = from.String()

	if reply := root.Get("7.reply"); reply.Type == gjson.String {
		cmid := gjson.Get(reply.String(), "conversation_message_id")
		if cmid.Type == gjson.Number && cmid.Int() > 0 {
			ev.ReplyTo = cmid.Int()
		}
	}

	return ev, nil
}
