package database

import (
	"database/sql"
	"time"
)

// Outcome classifies what the relay did with one source event.
type Outcome string

// Journal outcomes.
const (
	OutcomeRelayedText   Outcome = "relayed_text"
	OutcomeRelayedMedia  Outcome = "relayed_media"
	OutcomeEditedText    Outcome = "edited_text"
	OutcomeEditedCaption Outcome = "edited_caption"
	OutcomeDropped       Outcome = "dropped"
	OutcomeFailed        Outcome = "failed"
)

// JournalEntry is one row of the relay audit trail. It records identifiers
// and outcomes only, never message content.
type JournalEntry struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	TraceID              string        `db:"trace_id"`
	EventType            int64         `db:"event_type"`
	SourceMessageID      int64         `db:"source_message_id"`
	SourcePeerID         int64         `db:"source_peer_id"`
	DestinationChat      string        `db:"destination_chat"`
	DestinationMessageID sql.NullInt64 `db:"destination_message_id"`
	Outcome              Outcome       `db:"outcome"`
	Detail               string        `db:"detail"`
}
