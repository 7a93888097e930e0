package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Recipient is a Telegram destination: a numeric chat id or an @channel name.
type Recipient struct {
	ID       int64
	Username string
}

// ChatID returns the value Bot API methods accept as chat_id.
func (r Recipient) ChatID() any {
	if r.Username != "" {
		return r.Username
	}
	return r.ID
}

func (r Recipient) String() string {
	if r.Username != "" {
		return r.Username
	}
	return strconv.FormatInt(r.ID, 10)
}

// ChatMapping maps a VK peer id to its Telegram recipient.
type ChatMapping map[int64]Recipient

// PeerIDs returns the mapped VK peer ids in ascending order.
func (m ChatMapping) PeerIDs() []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// LoadChatMapping reads a JSON or YAML object of the form
// {"<vk peer id>": <telegram chat id> | "@channel"}.
func LoadChatMapping(path string) (ChatMapping, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: failed to read chat mapping %s: %v", ErrConfiguration, path, err)
	}

	chats, err := ParseChatMapping(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("%w: chat mapping %s: %v", ErrConfiguration, path, err)
	}
	return chats, nil
}

// ParseChatMapping converts decoded key/value pairs into a ChatMapping.
func ParseChatMapping(raw map[string]any) (ChatMapping, error) {
	chats := make(ChatMapping, len(raw))
	for key, value := range raw {
		peerID, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vk peer id %q: %w", key, err)
		}

		recipient, err := parseRecipient(value)
		if err != nil {
			return nil, fmt.Errorf("invalid recipient for peer %d: %w", peerID, err)
		}
		chats[peerID] = recipient
	}
	return chats, nil
}

func parseRecipient(value any) (Recipient, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "@") {
			if len(s) == 1 {
				return Recipient{}, fmt.Errorf("empty channel name")
			}
			return Recipient{Username: s}, nil
		}
	}

	id, err := cast.ToInt64E(value)
	if err != nil {
		return Recipient{}, err
	}
	if id == 0 {
		return Recipient{}, fmt.Errorf("chat id must not be zero")
	}
	return Recipient{ID: id}, nil
}
