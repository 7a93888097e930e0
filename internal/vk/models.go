package vk

import (
	"encoding/json"
)

// Message is a VK message as returned by messages.getById and
// messages.getByConversationMessageId. Forwarded messages reuse the same shape.
type Message struct {
	ID                    int64        `json:"id"`
	ConversationMessageID int64        `json:"conversation_message_id"`
	PeerID                int64        `json:"peer_id"`
	FromID                int64        `json:"from_id"`
	Text                  string       `json:"text"`
	Attachments           []Attachment `json:"attachments"`
	FwdMessages           []Message    `json:"fwd_messages"`
	Action                *Action      `json:"action,omitempty"`
}

// User holds the display fields returned by users.get.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ActionType names a chat service action carried in place of message content.
type ActionType string

// Known chat actions. Anything else is treated as an unknown action.
const (
	ActionChatPhotoUpdate      ActionType = "chat_photo_update"
	ActionChatPhotoRemove      ActionType = "chat_photo_remove"
	ActionChatCreate           ActionType = "chat_create"
	ActionChatTitleUpdate      ActionType = "chat_title_update"
	ActionChatInviteUser       ActionType = "chat_invite_user"
	ActionChatKickUser         ActionType = "chat_kick_user"
	ActionChatPinMessage       ActionType = "chat_pin_message"
	ActionChatUnpinMessage     ActionType = "chat_unpin_message"
	ActionChatInviteUserByLink ActionType = "chat_invite_user_by_link"
)

// Action is a chat service action.
type Action struct {
	Type     ActionType `json:"type"`
	MemberID int64      `json:"member_id"`
	Text     string     `json:"text"`
}

// AttachmentKind enumerates the attachment variants the relay understands.
type AttachmentKind string

// Attachment variants. KindUnsupported covers every VK type not listed here
// as well as known types whose payload could not be decoded.
const (
	KindPhoto        AttachmentKind = "photo"
	KindVideo        AttachmentKind = "video"
	KindDoc          AttachmentKind = "doc"
	KindAudioMessage AttachmentKind = "audio_message"
	KindPoll         AttachmentKind = "poll"
	KindWall         AttachmentKind = "wall"
	KindSticker      AttachmentKind = "sticker"
	KindLink         AttachmentKind = "link"
	KindUnsupported  AttachmentKind = "unsupported"
)

// Attachment is a closed sum type over the VK attachment variants. Exactly one
// of the payload pointers matching Kind is set; KindUnsupported sets none.
type Attachment struct {
	Kind AttachmentKind
	// RawType is the type string VK sent, kept for logging unsupported kinds.
	RawType string

	Photo        *Photo
	Video        *Video
	Doc          *Doc
	AudioMessage *AudioMessage
	Poll         *Poll
	Wall         *WallPost
	Sticker      *Sticker
	Link         *Link
}

// UnmarshalJSON decodes {"type": "...", "<type>": {...}}. Unknown types and
// undecodable payloads become KindUnsupported instead of failing the message.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	var rawType string
	if t, ok := envelope["type"]; ok {
		if err := json.Unmarshal(t, &rawType); err != nil {
			return err
		}
	}

	*a = Attachment{Kind: KindUnsupported, RawType: rawType}
	payload, ok := envelope[rawType]
	if !ok {
		return nil
	}

	var err error
	switch AttachmentKind(rawType) {
	case KindPhoto:
		a.Photo = &Photo{}
		err = json.Unmarshal(payload, a.Photo)
	case KindVideo:
		a.Video = &Video{}
		err = json.Unmarshal(payload, a.Video)
	case KindDoc:
		a.Doc = &Doc{}
		err = json.Unmarshal(payload, a.Doc)
	case KindAudioMessage:
		a.AudioMessage = &AudioMessage{}
		err = json.Unmarshal(payload, a.AudioMessage)
	case KindPoll:
		a.Poll = &Poll{}
		err = json.Unmarshal(payload, a.Poll)
	case KindWall:
		a.Wall = &WallPost{}
		err = json.Unmarshal(payload, a.Wall)
	case KindSticker:
		a.Sticker = &Sticker{}
		err = json.Unmarshal(payload, a.Sticker)
	case KindLink:
		a.Link = &Link{}
		err = json.Unmarshal(payload, a.Link)
	default:
		return nil
	}

	if err != nil {
		*a = Attachment{Kind: KindUnsupported, RawType: rawType}
		return nil
	}
	a.Kind = AttachmentKind(rawType)
	return nil
}

// PhotoSize is one rendition of a photo.
type PhotoSize struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Photo is a photo attachment.
type Photo struct {
	OrigPhoto *PhotoSize  `json:"orig_photo,omitempty"`
	Sizes     []PhotoSize `json:"sizes"`
}

// BestURL returns the original-resolution URL, falling back to the largest
// listed size for photos uploaded before orig_photo existed.
func (p *Photo) BestURL() string {
	if p.OrigPhoto != nil && p.OrigPhoto.URL != "" {
		return p.OrigPhoto.URL
	}
	best := ""
	area := -1
	for _, s := range p.Sizes {
		if s.URL != "" && s.Width*s.Height > area {
			area = s.Width * s.Height
			best = s.URL
		}
	}
	return best
}

// Video is a video attachment. Files is only populated for videos the token
// owner may download directly.
type Video struct {
	Files  map[string]any `json:"files"`
	Player string         `json:"player"`
}

var videoQualities = []string{"mp4_720", "mp4_480", "mp4_360", "mp4_240", "mp4_144"}

// FileURL returns the best direct mp4 URL from 720p down to 144p.
func (v *Video) FileURL() (string, bool) {
	for _, q := range videoQualities {
		if u, ok := v.Files[q].(string); ok && u != "" {
			return u, true
		}
	}
	return "", false
}

// Doc is a document attachment.
type Doc struct {
	Title   string      `json:"title"`
	URL     string      `json:"url"`
	Ext     string      `json:"ext"`
	Preview *DocPreview `json:"preview,omitempty"`
}

// DocPreview carries an embedded video for gif-like documents.
type DocPreview struct {
	Video *DocVideo `json:"video,omitempty"`
}

// DocVideo is the mp4 rendition of an animated document.
type DocVideo struct {
	Src string `json:"src"`
}

// VideoURL returns the embedded preview video, if any.
func (d *Doc) VideoURL() (string, bool) {
	if d.Preview == nil || d.Preview.Video == nil || d.Preview.Video.Src == "" {
		return "", false
	}
	return d.Preview.Video.Src, true
}

// AudioMessage is a voice note.
type AudioMessage struct {
	LinkMP3 string `json:"link_mp3"`
	LinkOGG string `json:"link_ogg"`
}

// URL prefers the ogg rendition.
func (a *AudioMessage) URL() string {
	if a.LinkOGG != "" {
		return a.LinkOGG
	}
	return a.LinkMP3
}

// Poll is a poll attachment.
type Poll struct {
	Question string `json:"question"`
}

// WallPost is a repost of a wall post.
type WallPost struct {
	ID      int64      `json:"id"`
	ToID    int64      `json:"to_id"`
	OwnerID int64      `json:"owner_id"`
	From    PostAuthor `json:"from"`
}

// WallOwner returns the wall the post lives on.
func (w *WallPost) WallOwner() int64 {
	if w.ToID != 0 {
		return w.ToID
	}
	return w.OwnerID
}

// PostAuthorKind discriminates PostAuthor.
type PostAuthorKind int

// Post author variants. The zero value is AuthorUnknown.
const (
	AuthorUnknown PostAuthorKind = iota
	AuthorProfile
	AuthorGroup
)

// PostAuthor is a tagged union over the author of a reposted post.
type PostAuthor struct {
	Kind      PostAuthorKind
	FirstName string
	LastName  string
	Name      string
}

// UnmarshalJSON decodes {"type": "profile"|"group", ...}; any other shape is
// an unknown author.
func (p *PostAuthor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type      string `json:"type"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Name      string `json:"name"`
	}
	*p = PostAuthor{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch raw.Type {
	case "profile":
		*p = PostAuthor{Kind: AuthorProfile, FirstName: raw.FirstName, LastName: raw.LastName}
	case "group":
		*p = PostAuthor{Kind: AuthorGroup, Name: raw.Name}
	}
	return nil
}

// Sticker is a sticker attachment.
type Sticker struct {
	StickerID int64 `json:"sticker_id"`
	ProductID int64 `json:"product_id"`
}

// Link is a link preview attachment.
type Link struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Caption string `json:"caption"`
}

// LongPollServer is the session triple returned by messages.getLongPollServer.
type LongPollServer struct {
	Key    string      `json:"key"`
	Server string      `json:"server"`
	TS     json.Number `json:"ts"`
}

type messagesResponse struct {
	Count int       `json:"count"`
	Items []Message `json:"items"`
}
