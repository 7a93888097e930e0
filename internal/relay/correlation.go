package relay

import "sync"

// RefKind records whether a relayed message was sent as text or as a media
// group, which decides the edit operation used later.
type RefKind int

// Destination message kinds.
const (
	RefText RefKind = iota + 1
	RefCaption
)

func (k RefKind) String() string {
	switch k {
	case RefText:
		return "text"
	case RefCaption:
		return "caption"
	default:
		return "unknown"
	}
}

// DestinationRef identifies the Telegram message created for a VK message.
// For media groups it is the first item, which carries the caption.
type DestinationRef struct {
	Kind      RefKind
	MessageID int
}

// CorrelationStore maps VK message ids to the Telegram messages they were
// relayed as. Entries are never evicted and live as long as the process.
type CorrelationStore struct {
	mu   sync.RWMutex
	refs map[int64]DestinationRef
}

// NewCorrelationStore creates an empty store.
func NewCorrelationStore() *CorrelationStore {
	return &CorrelationStore{refs: make(map[int64]DestinationRef)}
}

// Get returns the destination of a relayed message.
func (s *CorrelationStore) Get(sourceID int64) (DestinationRef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.refs[sourceID]
	return ref, ok
}

// Put records or replaces the destination of sourceID.
func (s *CorrelationStore) Put(sourceID int64, ref DestinationRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[sourceID] = ref
}

// Len reports the number of tracked messages.
func (s *CorrelationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.refs)
}
