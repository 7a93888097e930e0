package config

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParseChatMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     map[string]any
		want    ChatMapping
		wantErr bool
	}{
		{
			name: "numeric ids",
			raw:  map[string]any{"2000000001": float64(-1001234567890)},
			want: ChatMapping{2000000001: {ID: -1001234567890}},
		},
		{
			name: "channel name",
			raw:  map[string]any{"2000000002": "@relay_channel"},
			want: ChatMapping{2000000002: {Username: "@relay_channel"}},
		},
		{
			name: "numeric string",
			raw:  map[string]any{"2000000003": "-100777"},
			want: ChatMapping{2000000003: {ID: -100777}},
		},
		{
			name:    "bad key",
			raw:     map[string]any{"chat": float64(1)},
			wantErr: true,
		},
		{
			name:    "zero id",
			raw:     map[string]any{"2000000001": 0},
			wantErr: true,
		},
		{
			name:    "bare at sign",
			raw:     map[string]any{"2000000001": "@"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseChatMapping(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChatMapping() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseChatMapping() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadChatMapping(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "chats.json", `{"2000000001": -1001, "2000000005": "@news"}`)
	chats, err := LoadChatMapping(path)
	if err != nil {
		t.Fatalf("LoadChatMapping() error = %v", err)
	}

	if got := chats[2000000001].ChatID(); got != int64(-1001) {
		t.Errorf("ChatID() = %v, want -1001", got)
	}
	if got := chats[2000000005].ChatID(); got != "@news" {
		t.Errorf("ChatID() = %v, want @news", got)
	}
	if got := chats.PeerIDs(); !reflect.DeepEqual(got, []int64{2000000001, 2000000005}) {
		t.Errorf("PeerIDs() = %v", got)
	}
}

func TestLoadChatMappingMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadChatMapping(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("LoadChatMapping() error = %v, want ErrConfiguration", err)
	}
}
