package presence

import (
	"sort"
	"sync"
	"time"
)

type Conf struct {
	TTL        time.Duration    // incoming typing signal lifetime (3s)
	Idle       time.Duration    // keystroke inactivity before stop (2s)
	Clock      func() time.Time // nil => time.Now
	EmitTyping func()           // outgoing "typing" signal
	EmitStop   func()           // outgoing "stop_typing" signal
}

func (c *Conf) norm() {
	if c.TTL <= 0 {
		c.TTL = 3 * time.Second
	}
	if c.Idle <= 0 {
		c.Idle = 2 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.EmitTyping == nil {
		c.EmitTyping = func() {}
	}
	if c.EmitStop == nil {
		c.EmitStop = func() {}
	}
}

// Tracker owns the ephemeral typing state of one channel view: a
// time-decaying set of remote typists plus the outgoing keystroke
// throttle. Signals are never persisted anywhere.
type Tracker struct {
	mu   sync.Mutex
	conf Conf

	expires map[string]time.Time

	typing    bool
	idleTimer *time.Timer
	stopped   bool
}

func New(conf Conf) *Tracker {
	conf.norm()
	return &Tracker{
		conf:    conf,
		expires: make(map[string]time.Time),
	}
}

// OnTyping adds or refreshes a remote typist for one TTL.
func (t *Tracker) OnTyping(username string) {
	if username == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expires[username] = t.conf.Clock().Add(t.conf.TTL)
}

// OnStop removes a remote typist immediately, bypassing expiry.
func (t *Tracker) OnStop(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.expires, username)
}

// Typists returns the live set, sorted for stable rendering. Expiry is
// lazy: entries past their deadline are dropped on read.
func (t *Tracker) Typists() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.conf.Clock()
	out := make([]string, 0, len(t.expires))
	for name, deadline := range t.expires {
		if now.Before(deadline) {
			out = append(out, name)
		} else {
			delete(t.expires, name)
		}
	}
	sort.Strings(out)
	return out
}

// NoteKeystroke throttles the outgoing typing signal: the first keystroke
// after idle emits once and arms the idle timer; every further keystroke
// only resets the timer. The timer firing emits exactly one stop.
func (t *Tracker) NoteKeystroke() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	first := !t.typing
	t.typing = true
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	t.idleTimer = time.AfterFunc(t.conf.Idle, t.idleExpired)
	emit := t.conf.EmitTyping
	t.mu.Unlock()

	// emit outside the lock: the sink may call back into the tracker
	if first {
		emit()
	}
}

func (t *Tracker) idleExpired() {
	t.mu.Lock()
	if t.stopped || !t.typing {
		t.mu.Unlock()
		return
	}
	t.typing = false
	t.idleTimer = nil
	emit := t.conf.EmitStop
	t.mu.Unlock()
	emit()
}

// FlushStop force-emits stop and disarms the idle timer; called when the
// message is sent, regardless of timer state.
func (t *Tracker) FlushStop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.typing = false
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
	emit := t.conf.EmitStop
	t.mu.Unlock()
	emit()
}

// Stop cancels the idle timer and mutes all later emissions; part of the
// view teardown ordering.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.typing = false
	if t.idleTimer != nil {
		t.idleTimer.Stop()
		t.idleTimer = nil
	}
}
