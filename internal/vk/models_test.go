package vk

import (
	"encoding/json"
	"testing"
)

func TestAttachmentUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  AttachmentKind
		check func(t *testing.T, a Attachment)
	}{
		{
			name:  "photo with orig",
			input: `{"type":"photo","photo":{"orig_photo":{"url":"https://img/orig.jpg"},"sizes":[{"url":"https://img/s.jpg","width":10,"height":10}]}}`,
			want:  KindPhoto,
			check: func(t *testing.T, a Attachment) {
				if got := a.Photo.BestURL(); got != "https://img/orig.jpg" {
					t.Errorf("BestURL() = %q", got)
				}
			},
		},
		{
			name:  "photo without orig picks largest size",
			input: `{"type":"photo","photo":{"sizes":[{"url":"https://img/s.jpg","width":10,"height":10},{"url":"https://img/x.jpg","width":800,"height":600},{"url":"https://img/m.jpg","width":100,"height":100}]}}`,
			want:  KindPhoto,
			check: func(t *testing.T, a Attachment) {
				if got := a.Photo.BestURL(); got != "https://img/x.jpg" {
					t.Errorf("BestURL() = %q", got)
				}
			},
		},
		{
			name:  "video files ordered by quality",
			input: `{"type":"video","video":{"files":{"mp4_360":"https://v/360","mp4_480":"https://v/480","failover_host":"x"},"player":"https://vk.com/video_ext"}}`,
			want:  KindVideo,
			check: func(t *testing.T, a Attachment) {
				if got, ok := a.Video.FileURL(); !ok || got != "https://v/480" {
					t.Errorf("FileURL() = %q, %v", got, ok)
				}
			},
		},
		{
			name:  "video without files",
			input: `{"type":"video","video":{"player":"https://vk.com/video_ext"}}`,
			want:  KindVideo,
			check: func(t *testing.T, a Attachment) {
				if _, ok := a.Video.FileURL(); ok {
					t.Error("FileURL() ok = true, want false")
				}
			},
		},
		{
			name:  "gif doc",
			input: `{"type":"doc","doc":{"title":"cat.gif","url":"https://vk.com/doc1","preview":{"video":{"src":"https://v/cat.mp4"}}}}`,
			want:  KindDoc,
			check: func(t *testing.T, a Attachment) {
				if got, ok := a.Doc.VideoURL(); !ok || got != "https://v/cat.mp4" {
					t.Errorf("VideoURL() = %q, %v", got, ok)
				}
			},
		},
		{
			name:  "audio message falls back to mp3",
			input: `{"type":"audio_message","audio_message":{"link_mp3":"https://a/1.mp3"}}`,
			want:  KindAudioMessage,
			check: func(t *testing.T, a Attachment) {
				if got := a.AudioMessage.URL(); got != "https://a/1.mp3" {
					t.Errorf("URL() = %q", got)
				}
			},
		},
		{
			name:  "wall with group author",
			input: `{"type":"wall","wall":{"id":7,"owner_id":-5,"from":{"type":"group","name":"Club"}}}`,
			want:  KindWall,
			check: func(t *testing.T, a Attachment) {
				if a.Wall.From.Kind != AuthorGroup || a.Wall.From.Name != "Club" {
					t.Errorf("From = %+v", a.Wall.From)
				}
				if a.Wall.WallOwner() != -5 {
					t.Errorf("WallOwner() = %d, want -5", a.Wall.WallOwner())
				}
			},
		},
		{
			name:  "wall without author",
			input: `{"type":"wall","wall":{"id":7,"to_id":3}}`,
			want:  KindWall,
			check: func(t *testing.T, a Attachment) {
				if a.Wall.From.Kind != AuthorUnknown {
					t.Errorf("From.Kind = %v, want AuthorUnknown", a.Wall.From.Kind)
				}
			},
		},
		{
			name:  "unknown type",
			input: `{"type":"market","market":{"id":1}}`,
			want:  KindUnsupported,
			check: func(t *testing.T, a Attachment) {
				if a.RawType != "market" {
					t.Errorf("RawType = %q", a.RawType)
				}
			},
		},
		{
			name:  "known type with broken payload",
			input: `{"type":"poll","poll":"oops"}`,
			want:  KindUnsupported,
		},
		{
			name:  "known type without payload",
			input: `{"type":"sticker"}`,
			want:  KindUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var a Attachment
			if err := json.Unmarshal([]byte(tt.input), &a); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if a.Kind != tt.want {
				t.Fatalf("Kind = %q, want %q", a.Kind, tt.want)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}

func TestMessageUnmarshalWithForwards(t *testing.T) {
	t.Parallel()

	input := `{"id":10,"from_id":5,"text":"hi","attachments":[{"type":"poll","poll":{"question":"Why?"}}],
		"fwd_messages":[{"from_id":6,"text":"line1\nline2"}],"action":{"type":"chat_pin_message","member_id":5}}`

	var m Message
	if err := json.Unmarshal([]byte(input), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(m.Attachments) != 1 || m.Attachments[0].Poll.Question != "Why?" {
		t.Errorf("Attachments = %+v", m.Attachments)
	}
	if len(m.FwdMessages) != 1 || m.FwdMessages[0].FromID != 6 {
		t.Errorf("FwdMessages = %+v", m.FwdMessages)
	}
	if m.Action == nil || m.Action.Type != ActionChatPinMessage {
		t.Errorf("Action = %+v", m.Action)
	}
}
