package ids

import "sync"

// Sequence hands out session-local monotonic ids. These are render keys
// only: unique within one session lifetime, never durable, never shared
// with the server. Correlation with server-side records uses the server's
// own message id, carried separately.
type Sequence struct {
	mu   sync.Mutex
	last int64
}

func NewSequence() *Sequence {
	return &Sequence{}
}

func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	return s.last
}
