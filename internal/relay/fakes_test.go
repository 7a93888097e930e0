package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/edgard/vkrelay/internal/config"
	"github.com/edgard/vkrelay/internal/database"
	"github.com/edgard/vkrelay/internal/vk"
)

var errNotFound = errors.New("not found")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessages() config.MessagesConfig {
	return config.MessagesConfig{
		Welcome:                "welcome",
		Unauthorized:           "denied",
		StatusHeader:           "status",
		BotSender:              "БОТ",
		UnknownSender:          "???",
		AttachmentsHeader:      "Вложения",
		AttachmentsUnavailable: "Не удалось получить вложения",
		Unsupported:            "Вложение не поддерживается",
		Video:                  "Видео",
		PostFrom:               "Публикация от",
		UnknownAuthor:          "Неизвестно",
		Link:                   "Ссылка",
		ForwardedFrom:          "Пересланное сообщение от",
		Actions:                config.DefaultActions,
		UnknownAction:          "выполнил(а) действие",
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Relay:    config.RelayConfig{GroupPeerThreshold: config.DefaultGroupPeerThreshold},
		Messages: testMessages(),
	}
}

type fakeSource struct {
	mu             sync.Mutex
	messages       map[int64]*vk.Message
	byConversation map[int64]*vk.Message
	users          map[int64]*vk.User
	calls          []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		messages:       map[int64]*vk.Message{},
		byConversation: map[int64]*vk.Message{},
		users:          map[int64]*vk.User{},
	}
}

func (f *fakeSource) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) MessageByID(_ context.Context, id int64) (*vk.Message, error) {
	f.record(fmt.Sprintf("MessageByID(%d)", id))
	if m, ok := f.messages[id]; ok {
		return m, nil
	}
	return nil, errNotFound
}

func (f *fakeSource) MessageByConversationID(_ context.Context, peerID, cmid int64) (*vk.Message, error) {
	f.record(fmt.Sprintf("MessageByConversationID(%d,%d)", peerID, cmid))
	if m, ok := f.byConversation[cmid]; ok {
		return m, nil
	}
	return nil, errNotFound
}

func (f *fakeSource) User(_ context.Context, id int64) (*vk.User, error) {
	f.record(fmt.Sprintf("User(%d)", id))
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, errNotFound
}

type destCall struct {
	Method    string
	To        config.Recipient
	Body      string
	Media     []Media
	ReplyTo   int
	MessageID int
}

type fakeDestination struct {
	mu     sync.Mutex
	calls  []destCall
	nextID int
	err    error
}

func (f *fakeDestination) add(c destCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeDestination) id() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return 100 + f.nextID
}

func (f *fakeDestination) SendText(_ context.Context, to config.Recipient, body string, replyTo int) (int, error) {
	f.add(destCall{Method: "SendText", To: to, Body: body, ReplyTo: replyTo})
	if f.err != nil {
		return 0, f.err
	}
	return f.id(), nil
}

func (f *fakeDestination) SendMediaGroup(_ context.Context, to config.Recipient, media []Media, caption string, replyTo int) ([]int, error) {
	f.add(destCall{Method: "SendMediaGroup", To: to, Body: caption, Media: media, ReplyTo: replyTo})
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int, len(media))
	for i := range ids {
		ids[i] = f.id()
	}
	return ids, nil
}

func (f *fakeDestination) EditText(_ context.Context, to config.Recipient, messageID int, body string) error {
	f.add(destCall{Method: "EditText", To: to, Body: body, MessageID: messageID})
	return f.err
}

func (f *fakeDestination) EditCaption(_ context.Context, to config.Recipient, messageID int, caption string) error {
	f.add(destCall{Method: "EditCaption", To: to, Body: caption, MessageID: messageID})
	return f.err
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []database.JournalEntry
}

func (f *fakeJournal) SaveJournalEntry(_ context.Context, e *database.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeJournal) last() database.JournalEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return database.JournalEntry{}
	}
	return f.entries[len(f.entries)-1]
}
