package testsupport

import (
	"sync"

	"github.com/crucial707/remote-inspect/internal/notify"
)

// RecordingSink collects dispatched events synchronously.
type RecordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (s *RecordingSink) Dispatch(ev notify.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

// Events returns a copy of everything dispatched so far.
func (s *RecordingSink) Events() []notify.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notify.Event, len(s.events))
	copy(out, s.events)
	return out
}
