package stream

import (
	"strings"
	"sync"
	"time"

	"RTCSession/module/chat/model"
	"RTCSession/tools/ids"
)

// System notice markers used by the gateway's join/leave broadcasts.
var systemMarkers = []string{"a rejoint", "a quitté"}

type Conf struct {
	DedupWindow time.Duration    // identical text inside this window collapses
	Clock       func() time.Time // nil => time.Now
}

func (c *Conf) norm() {
	if c.DedupWindow <= 0 {
		c.DedupWindow = time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Stream is the merge point of the channel view: seeded once from
// history, appended from the live transport, queried by the renderer.
// Live frames arriving before the seed are buffered and replayed after it
// so a slow history fetch cannot silently drop them.
type Stream struct {
	mu   sync.Mutex
	conf Conf
	seq  *ids.Sequence

	msgs    []model.Message
	seeded  bool
	pending []pendingFrame

	recent []dedupEntry
}

type pendingFrame struct {
	raw string
	at  time.Time
}

type dedupEntry struct {
	raw string
	at  time.Time
}

func New(conf Conf) *Stream {
	conf.norm()
	return &Stream{
		conf: conf,
		seq:  ids.NewSequence(),
	}
}

// Seed replaces the whole sequence with normalized history records,
// assigning session-local ids, then replays any live frames that arrived
// while history was still loading.
func (s *Stream) Seed(history []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = make([]model.Message, 0, len(history)+len(s.pending))
	for _, m := range history {
		m.ID = s.seq.Next()
		if m.Kind == "" {
			m.Kind = model.KindChat
		}
		s.msgs = append(s.msgs, m)
	}
	s.seeded = true

	for _, p := range s.pending {
		s.appendLocked(p.raw, p.at)
	}
	s.pending = nil
}

// Append ingests one raw text frame off the transport. Returns the
// resulting message, or nil when the frame was buffered pre-seed or
// dropped as a duplicate.
func (s *Stream) Append(raw string) *model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.conf.Clock()
	if !s.seeded {
		s.pending = append(s.pending, pendingFrame{raw: raw, at: now})
		return nil
	}
	return s.appendLocked(raw, now)
}

func (s *Stream) appendLocked(raw string, now time.Time) *model.Message {
	if s.isDuplicateLocked(raw, now) {
		return nil
	}
	s.recent = append(s.recent, dedupEntry{raw: raw, at: now})

	m := classify(raw)
	m.ID = s.seq.Next()
	m.Timestamp = now
	s.msgs = append(s.msgs, m)
	return &s.msgs[len(s.msgs)-1]
}

func (s *Stream) isDuplicateLocked(raw string, now time.Time) bool {
	keep := s.recent[:0]
	dup := false
	for _, e := range s.recent {
		if now.Sub(e.at) >= s.conf.DedupWindow {
			continue
		}
		keep = append(keep, e)
		if e.raw == raw {
			dup = true
		}
	}
	s.recent = keep
	return dup
}

// classify splits a raw frame into a view entry: system if it carries a
// join/leave marker, otherwise chat with the author parsed from the first
// ": " occurrence.
func classify(raw string) model.Message {
	for _, marker := range systemMarkers {
		if strings.Contains(raw, marker) {
			return model.Message{Text: raw, Kind: model.KindSystem}
		}
	}
	if idx := strings.Index(raw, ": "); idx > 0 {
		return model.Message{
			Kind:       model.KindChat,
			AuthorName: raw[:idx],
			Text:       raw[idx+2:],
		}
	}
	return model.Message{Text: raw, Kind: model.KindChat}
}

// Remove deletes by session-local id. Idempotent: an absent id is a
// no-op. Returns the removed message for re-insertion on a rejected
// delete command.
func (s *Stream) Remove(id int64) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.msgs {
		if m.ID == id {
			removed := m
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			return removed, true
		}
	}
	return model.Message{}, false
}

// RemoveServerID deletes by the backend's message id, used for echoed
// message_deleted broadcasts. Idempotent.
func (s *Stream) RemoveServerID(serverMsgID string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if serverMsgID == "" {
		return model.Message{}, false
	}
	for i, m := range s.msgs {
		if m.ServerMsgID == serverMsgID {
			removed := m
			s.msgs = append(s.msgs[:i], s.msgs[i+1:]...)
			return removed, true
		}
	}
	return model.Message{}, false
}

// Reinsert puts a previously removed message back at its ordering
// position (session-local ids are monotonic, so the position is the first
// slot with a larger id). Compensation path for rejected delete commands.
func (s *Stream) Reinsert(m model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at := len(s.msgs)
	for i := range s.msgs {
		if s.msgs[i].ID > m.ID {
			at = i
			break
		}
	}
	s.msgs = append(s.msgs, model.Message{})
	copy(s.msgs[at+1:], s.msgs[at:])
	s.msgs[at] = m
}

// Messages returns a copy of the current ordered view.
func (s *Stream) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *Stream) Seeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}
