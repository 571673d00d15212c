package global

import "time"

// AppConfig holds the process-wide knobs for one chat client process.
// Timing values mirror the backend's expectations: the gateway rebroadcasts
// typing events with a 3s client-side TTL and the UI throttles outgoing
// typing signals on a 2s idle window.
type AppConfig struct {
	BaseURL string // REST origin, session-cookie credentialed
	WSURL   string // push endpoint, e.g. ws://host/ws

	ReconnectDelay time.Duration // delay before re-dialing after an unexpected drop
	TypingTTL      time.Duration // incoming typing signal lifetime
	TypingIdle     time.Duration // keystroke inactivity before emitting stop_typing
	DedupWindow    time.Duration // identical-text frames inside this window collapse
	DialTimeout    time.Duration // per-attempt websocket dial limit
	SendQueueSize  int           // per-connection outbound queue
}

func (c *AppConfig) Norm() {
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 3 * time.Second
	}
	if c.TypingTTL <= 0 {
		c.TypingTTL = 3 * time.Second
	}
	if c.TypingIdle <= 0 {
		c.TypingIdle = 2 * time.Second
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 64
	}
}

var Global = AppConfig{
	BaseURL:        "http://localhost:3000",
	WSURL:          "ws://localhost:3000/ws",
	ReconnectDelay: 3 * time.Second,
	TypingTTL:      3 * time.Second,
	TypingIdle:     2 * time.Second,
	DedupWindow:    time.Second,
	DialTimeout:    10 * time.Second,
	SendQueueSize:  64,
}
