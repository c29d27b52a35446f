// Package progress publishes coarse stage updates for long-running
// generations so a client can poll while the pipeline works.
package progress

import (
	"context"
	"sync"
)

// Event is one observed pipeline transition. Percent is monotone per
// generation and reaches 100 exactly once, on terminal success or failure.
type Event struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
}

// Sink receives events keyed by generation ID. Publishing is best-effort;
// the pipeline never fails a generation over a progress write.
type Sink interface {
	Publish(ctx context.Context, generationID string, event Event)
	Latest(ctx context.Context, generationID string) (Event, bool)
}

// MemorySink retains the latest event and full history per generation.
type MemorySink struct {
	mu      sync.RWMutex
	history map[string][]Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{history: make(map[string][]Event)}
}

func (s *MemorySink) Publish(ctx context.Context, generationID string, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[generationID] = append(s.history[generationID], event)
}

func (s *MemorySink) Latest(ctx context.Context, generationID string) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.history[generationID]
	if len(events) == 0 {
		return Event{}, false
	}
	return events[len(events)-1], true
}

// History returns a copy of every event published for the generation.
func (s *MemorySink) History(generationID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := s.history[generationID]
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

var _ Sink = (*MemorySink)(nil)
