package relay

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/edgard/vkrelay/internal/vk"
)

const annLink = "[Ann Lee](https://vk.com/id5)"

func mustMessage(t *testing.T, raw string) *vk.Message {
	t.Helper()
	var m vk.Message
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return &m
}

func newTestFormatter(src *fakeSource) *Formatter {
	senders := NewSenderResolver(src, testMessages(), discardLogger())
	return NewFormatter(senders, NewAttachmentResolver(src, senders, testMessages(), discardLogger()))
}

func TestSenderResolver(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	src.users[5] = &vk.User{ID: 5, FirstName: "Ann", LastName: "Lee"}
	src.users[6] = &vk.User{ID: 6, FirstName: "Jo_hn", LastName: "(Jr.)"}
	r := NewSenderResolver(src, testMessages(), discardLogger())

	tests := []struct {
		from string
		want string
	}{
		{"5", annLink},
		{"6", `[Jo\_hn \(Jr\.\)](https://vk.com/id6)`},
		{"-42", "БОТ"},
		{"0", "БОТ"},
		{"99", "???"},
		{"abc", "???"},
	}
	for _, tt := range tests {
		if got := r.Resolve(context.Background(), tt.from); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestAttachmentResolver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		message   string
		wantMedia []Media
		wantText  string
	}{
		{
			name:      "photo and sticker",
			message:   `{"id":1,"attachments":[{"type":"photo","photo":{"orig_photo":{"url":"https://img/1.jpg"}}},{"type":"sticker","sticker":{"sticker_id":77}}]}`,
			wantMedia: []Media{{Kind: MediaPhoto, URL: "https://img/1.jpg"}, {Kind: MediaPhoto, URL: "https://vk.com/sticker/1-77-128b"}},
		},
		{
			name:      "voice",
			message:   `{"id":1,"attachments":[{"type":"audio_message","audio_message":{"link_ogg":"https://a/1.ogg","link_mp3":"https://a/1.mp3"}}]}`,
			wantMedia: []Media{{Kind: MediaVoice, URL: "https://a/1.ogg"}},
		},
		{
			name:      "gif document",
			message:   `{"id":1,"attachments":[{"type":"doc","doc":{"title":"cat.gif","url":"https://vk.com/doc1_2","preview":{"video":{"src":"https://v/cat.mp4"}}}}]}`,
			wantMedia: []Media{{Kind: MediaVideo, URL: "https://v/cat.mp4"}},
			wantText:  "🔗 *Вложения*:\n[cat\\.gif](https://vk.com/doc1_2)",
		},
		{
			name:     "plain document",
			message:  `{"id":1,"attachments":[{"type":"doc","doc":{"title":"report.pdf","url":"https://vk.com/doc1_3"}}]}`,
			wantText: "🔗 *Вложения*:\n[report\\.pdf](https://vk.com/doc1_3)",
		},
		{
			name:      "downloadable video",
			message:   `{"id":1,"attachments":[{"type":"video","video":{"files":{"mp4_240":"https://v/240","mp4_720":"https://v/720"}}}]}`,
			wantMedia: []Media{{Kind: MediaVideo, URL: "https://v/720"}},
		},
		{
			name:     "player only video",
			message:  `{"id":1,"attachments":[{"type":"video","video":{"player":"https://vk.com/video_ext.php?oid=1"}}]}`,
			wantText: "🔗 *Вложения*:\n[Видео](https://vk.com/video_ext.php?oid=1)",
		},
		{
			name:     "poll",
			message:  `{"id":1,"attachments":[{"type":"poll","poll":{"question":"Pizza?"}}]}`,
			wantText: "🔗 *Вложения*:\n📊 _Pizza?_",
		},
		{
			name:     "wall post by profile",
			message:  `{"id":1,"attachments":[{"type":"wall","wall":{"id":9,"to_id":-3,"from":{"type":"profile","first_name":"Ann","last_name":"Lee"}}}]}`,
			wantText: "🔗 *Вложения*:\n[Публикация от Ann Lee](https://vk.com/wall-3_9)",
		},
		{
			name:     "wall post by unknown author",
			message:  `{"id":1,"attachments":[{"type":"wall","wall":{"id":9,"owner_id":4}}]}`,
			wantText: "🔗 *Вложения*:\n[Публикация от Неизвестно](https://vk.com/wall4_9)",
		},
		{
			name:     "link",
			message:  `{"id":1,"attachments":[{"type":"link","link":{"url":"https://go.dev","title":"Go","caption":"go.dev"}}]}`,
			wantText: "🔗 *Вложения*:\nСсылка _[Go \\| go\\.dev](https://go.dev)_",
		},
		{
			name:     "unsupported",
			message:  `{"id":1,"attachments":[{"type":"market","market":{}}]}`,
			wantText: "🔗 *Вложения*:\nВложение не поддерживается",
		},
		{
			name:     "forwarded message",
			message:  `{"id":1,"fwd_messages":[{"from_id":5,"text":"first line\nsecond!"}]}`,
			wantText: "🔗 *Вложения*:\nПересланное сообщение от " + annLink + "\n>first line\n>second\\!||",
		},
		{
			name:    "nothing",
			message: `{"id":1,"text":"just text"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := newFakeSource()
			src.users[5] = &vk.User{ID: 5, FirstName: "Ann", LastName: "Lee"}
			src.messages[1] = mustMessage(t, tt.message)

			senders := NewSenderResolver(src, testMessages(), discardLogger())
			r := NewAttachmentResolver(src, senders, testMessages(), discardLogger())
			got := r.Resolve(context.Background(), 1)

			if !reflect.DeepEqual(got.Media, tt.wantMedia) {
				t.Errorf("Media = %+v, want %+v", got.Media, tt.wantMedia)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if got.Action != "" {
				t.Errorf("Action = %q, want empty", got.Action)
			}
		})
	}
}

func TestAttachmentResolverAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action string
		want   string
	}{
		{"chat_pin_message", `_закрепил\(а\) сообщение_`},
		{"chat_invite_user_by_link", `_присоединился по ссылке_`},
		{"chat_screenshot", `_выполнил\(а\) действие_`},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			t.Parallel()
			src := newFakeSource()
			src.messages[1] = mustMessage(t, `{"id":1,"action":{"type":"`+tt.action+`"},
				"attachments":[{"type":"photo","photo":{"orig_photo":{"url":"https://img/1.jpg"}}}]}`)

			r := NewAttachmentResolver(src, NewSenderResolver(src, testMessages(), discardLogger()), testMessages(), discardLogger())
			got := r.Resolve(context.Background(), 1)
			if got.Action != tt.want {
				t.Errorf("Action = %q, want %q", got.Action, tt.want)
			}
			if len(got.Media) != 0 || got.Text != "" {
				t.Errorf("Resolve() = %+v, want only an action", got)
			}
		})
	}
}

func TestAttachmentResolverFetchFailure(t *testing.T) {
	t.Parallel()

	src := newFakeSource()
	r := NewAttachmentResolver(src, NewSenderResolver(src, testMessages(), discardLogger()), testMessages(), discardLogger())
	got := r.Resolve(context.Background(), 404)

	if len(got.Media) != 0 {
		t.Errorf("Media = %+v, want none", got.Media)
	}
	if want := "🔗 *Вложения*:\nНе удалось получить вложения"; got.Text != want {
		t.Errorf("Text = %q, want %q", got.Text, want)
	}
}

func TestFormatterFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		message   string
		from      string
		text      string
		wantBody  string
		wantMedia int
	}{
		{
			name:     "text only",
			message:  `{"id":10}`,
			from:     "5",
			text:     "hello *world*",
			wantBody: "*" + annLink + "*\nhello \\*world\\*",
		},
		{
			name:      "photo only caption is the sender",
			message:   `{"id":10,"attachments":[{"type":"photo","photo":{"orig_photo":{"url":"https://img/1.jpg"}}}]}`,
			from:      "5",
			wantBody:  "*" + annLink + "*",
			wantMedia: 1,
		},
		{
			name:     "text and description block",
			message:  `{"id":10,"attachments":[{"type":"poll","poll":{"question":"Why?"}}]}`,
			from:     "-1",
			text:     "vote [id5|Ann]",
			wantBody: "*БОТ*\nvote [Ann](https://vk.com/id5)\n\n🔗 *Вложения*:\n📊 _Why?_",
		},
		{
			name:     "description block without text",
			message:  `{"id":10,"attachments":[{"type":"poll","poll":{"question":"Why?"}}]}`,
			from:     "5",
			wantBody: "*" + annLink + "*\n\n🔗 *Вложения*:\n📊 _Why?_",
		},
		{
			name:     "action replaces text",
			message:  `{"id":10,"action":{"type":"chat_title_update","text":"New"}}`,
			from:     "5",
			text:     "New",
			wantBody: "*" + annLink + "*\n_обновил\\(а\\) название чата_",
		},
		{
			name:     "unknown sender",
			message:  `{"id":10}`,
			from:     "77",
			text:     "hi",
			wantBody: "*???*\nhi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := newFakeSource()
			src.users[5] = &vk.User{ID: 5, FirstName: "Ann", LastName: "Lee"}
			src.messages[10] = mustMessage(t, tt.message)

			body, media := newTestFormatter(src).Format(context.Background(), 10, tt.from, tt.text)
			if body != tt.wantBody {
				t.Errorf("Format() body = %q, want %q", body, tt.wantBody)
			}
			if len(media) != tt.wantMedia {
				t.Errorf("Format() media = %d, want %d", len(media), tt.wantMedia)
			}
		})
	}
}
