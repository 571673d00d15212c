// Package session owns the lifetime of one open channel view: identity
// check, directory refresh, history seed, live transport, typing state and
// the delete command path, merged into one renderable view model.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"RTCSession/global"
	"RTCSession/logger"
	"RTCSession/module/chat/directory"
	"RTCSession/module/chat/model"
	"RTCSession/module/chat/perm"
	"RTCSession/module/chat/presence"
	"RTCSession/module/chat/servers"
	"RTCSession/module/chat/stream"
	chat "RTCSession/service/chat"
	"RTCSession/tools/errs"
	"RTCSession/tools/safe"
)

// Backend is the REST collaborator surface the session consumes.
// *rest.Client satisfies it.
type Backend interface {
	CurrentUser(ctx context.Context) (*model.Identity, error)
	ChannelMessages(ctx context.Context, channelID int64) ([]model.Message, error)
	AllUsers(ctx context.Context) ([]model.DirectoryEntry, error)
	UserServers(ctx context.Context) ([]model.Server, error)
	ServerMembers(ctx context.Context, serverID int64) ([]model.Member, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

type EventKind int

const (
	EventMessages EventKind = iota // view model changed
	EventTyping                    // typist set changed
	EventConn                      // connection state changed
	EventAlert                     // user-visible command failure
)

type Event struct {
	Kind  EventKind
	State chat.State
	Alert string
}

type Conf struct {
	ServerID   int64
	ChannelID  int64
	ViewerRole model.Role // viewer's role on this server, for UI gating
	App        global.AppConfig
	Dial       chat.Dialer // injectable transport dialer for tests
}

// Session is one (server, channel) view from selection to navigation
// away. History is loaded exactly once per session; opening the same
// channel again means a fresh session and a fresh fetch.
type Session struct {
	conf    Conf
	backend Backend

	conn   *chat.ConnManager
	stream *stream.Stream
	typing *presence.Tracker
	dir    *directory.Resolver
	common *servers.Resolver

	mu     sync.RWMutex
	viewer model.Identity

	tearingDown atomic.Bool
	closeOnce   sync.Once
	events      chan Event
}

// Open builds and starts a session. An identity failure aborts; a
// transport failure does not, because the reconnect cycle is already
// armed and the view stays usable in its disconnected state.
func Open(ctx context.Context, conf Conf, backend Backend) (*Session, error) {
	conf.App.Norm()
	if conf.ViewerRole == "" {
		conf.ViewerRole = model.RoleMember
	}

	s := &Session{
		conf:    conf,
		backend: backend,
		stream: stream.New(stream.Conf{
			DedupWindow: conf.App.DedupWindow,
		}),
		dir:    directory.New(backend),
		common: servers.New(backend),
		events: make(chan Event, 64),
	}
	s.typing = presence.New(presence.Conf{
		TTL:  conf.App.TypingTTL,
		Idle: conf.App.TypingIdle,
		EmitTyping: func() {
			_ = s.conn.Send(chat.BuildTyping(s.Viewer().DisplayName()))
		},
		EmitStop: func() {
			_ = s.conn.Send(chat.BuildStopTyping(s.Viewer().DisplayName()))
		},
	})
	s.conn = chat.NewConnManager(chat.ManagerConf{
		WSURL:          conf.App.WSURL,
		ReconnectDelay: conf.App.ReconnectDelay,
		DialTimeout:    conf.App.DialTimeout,
		SendQueueSize:  conf.App.SendQueueSize,
		Dial:           conf.Dial,
		OnState: func(st chat.State) {
			s.push(Event{Kind: EventConn, State: st})
		},
	}, backend)

	if err := s.conn.Open(ctx, conf.ServerID, conf.ChannelID); err != nil {
		if errors.Is(err, errs.ErrUnauthorized) {
			s.conn.Close()
			return nil, err
		}
		logger.Warnf("[session] initial connect failed, reconnect armed: %v", err)
	}
	if v := s.conn.Viewer(); v != nil {
		v.Role = conf.ViewerRole
		s.mu.Lock()
		s.viewer = *v
		s.mu.Unlock()
	}

	safe.Go("session.directory", func() {
		if s.dir.Refresh(context.Background()) == nil && !s.tearingDown.Load() {
			s.push(Event{Kind: EventMessages})
		}
	})
	safe.Go("session.history", func() { s.loadHistory() })
	safe.Go("session.loop", func() { s.loop() })
	return s, nil
}

// loadHistory is the one-shot fetch for this session's channel. Failures
// are swallowed to an empty result; frames that raced the fetch were
// buffered by the stream and replay after seeding.
func (s *Session) loadHistory() {
	history, err := s.backend.ChannelMessages(context.Background(), s.conf.ChannelID)
	if err != nil {
		logger.Warnf("[session] history load failed channel=%d: %v", s.conf.ChannelID, err)
		history = nil
	}
	if s.tearingDown.Load() {
		return
	}
	s.stream.Seed(history)
	s.push(Event{Kind: EventMessages})
}

func (s *Session) loop() {
	for {
		select {
		case <-s.conn.Done():
			return
		case inc := <-s.conn.Recv():
			if s.tearingDown.Load() {
				return
			}
			s.handleIncoming(inc)
		}
	}
}

func (s *Session) handleIncoming(inc chat.Incoming) {
	if inc.Frame == nil {
		if s.stream.Append(inc.Text) != nil {
			s.push(Event{Kind: EventMessages})
		}
		return
	}
	switch inc.Frame.Type {
	case chat.FrameTyping:
		s.typing.OnTyping(inc.Frame.Username)
		s.push(Event{Kind: EventTyping})
	case chat.FrameStopTyping:
		s.typing.OnStop(inc.Frame.Username)
		s.push(Event{Kind: EventTyping})
	case chat.FrameMessageDeleted:
		// idempotent: an echo for an unknown id is a no-op
		if _, ok := s.stream.RemoveServerID(inc.Frame.MessageID); ok {
			s.push(Event{Kind: EventMessages})
		}
	default:
		logger.Debug("[session] ignoring frame type " + inc.Frame.Type)
	}
}

// ===== UI surface =====

// Events delivers change notifications; the channel is buffered and
// slow consumers only lose pokes, never state (reads are snapshots).
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) Messages() []model.Message { return s.stream.Messages() }

func (s *Session) Typists() []string { return s.typing.Typists() }

func (s *Session) Connected() bool { return s.conn.Connected() }

func (s *Session) Viewer() model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewer
}

func (s *Session) Directory() *directory.Resolver { return s.dir }

// NoteKeystroke feeds the outgoing typing throttle.
func (s *Session) NoteKeystroke() { s.typing.NoteKeystroke() }

// SendMessage flushes the typing state and sends the literal body. An
// all-whitespace body is a no-op.
func (s *Session) SendMessage(text string) error {
	if isBlank(text) {
		return nil
	}
	s.typing.FlushStop()
	return s.conn.SendText(text)
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// DeleteMessage removes optimistically, notifies the push channel, then
// issues the REST command. A rejection re-inserts the message at its old
// position and surfaces the failure as an alert.
func (s *Session) DeleteMessage(ctx context.Context, id int64) error {
	removed, ok := s.stream.Remove(id)
	if !ok {
		return nil
	}
	s.push(Event{Kind: EventMessages})

	if removed.ServerMsgID == "" {
		return nil // never persisted; local removal is the whole story
	}
	_ = s.conn.Send(chat.BuildDeleteMessage(removed.ServerMsgID, s.Viewer().DisplayName()))

	if err := s.backend.DeleteMessage(ctx, removed.ServerMsgID); err != nil {
		s.stream.Reinsert(removed)
		s.push(Event{Kind: EventMessages})
		s.push(Event{Kind: EventAlert, Alert: err.Error()})
		return err
	}
	return nil
}

// CommonServers computes the communities shared with the target profile.
func (s *Session) CommonServers(ctx context.Context, targetUserID int64) []model.Server {
	viewerServers, err := s.backend.UserServers(ctx)
	if err != nil {
		logger.Warnf("[session] user servers fetch failed: %v", err)
		return nil
	}
	return s.common.Compute(ctx, targetUserID, viewerServers)
}

// CanDeleteMessage and CanKick mirror server-side permissions for UI
// gating only.
func (s *Session) CanDeleteMessage(msg model.Message) bool {
	return perm.CanDeleteMessage(s.Viewer(), msg)
}

func (s *Session) CanKick(target model.Member) bool {
	return perm.CanKick(s.Viewer(), target)
}

// Close tears the view down in the mandatory order: tearing-down flag,
// reconnect timer, typing idle timer, then the transport.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.tearingDown.Store(true)
		s.conn.BeginTeardown()
		s.typing.Stop()
		s.conn.Close()
	})
}

func (s *Session) push(e Event) {
	select {
	case s.events <- e:
	default:
		// pokes are droppable, state is read via snapshots
	}
}
