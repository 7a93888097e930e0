package relay

import (
	"sync"
	"testing"
)

func TestCorrelationStore(t *testing.T) {
	t.Parallel()

	s := NewCorrelationStore()
	if _, ok := s.Get(1); ok {
		t.Fatal("Get() on empty store ok = true")
	}

	s.Put(1, DestinationRef{Kind: RefText, MessageID: 10})
	s.Put(1, DestinationRef{Kind: RefCaption, MessageID: 11})

	got, ok := s.Get(1)
	if !ok || got != (DestinationRef{Kind: RefCaption, MessageID: 11}) {
		t.Errorf("Get() = %+v, %v", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestCorrelationStoreConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewCorrelationStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			s.Put(id, DestinationRef{Kind: RefText, MessageID: int(id)})
		}(int64(i))
		go func(id int64) {
			defer wg.Done()
			s.Get(id)
		}(int64(i))
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
}

func TestRefKindString(t *testing.T) {
	t.Parallel()

	if RefText.String() != "text" || RefCaption.String() != "caption" || RefKind(0).String() != "unknown" {
		t.Error("RefKind.String() mismatch")
	}
}
