// Package ui renders one channel session in the terminal: scrollback,
// typing line, connection dot and the input box.
package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"RTCSession/module/chat/model"
	"RTCSession/module/chat/session"
	chat "RTCSession/service/chat"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#F97316") // orange, the house color
	muted  = lipgloss.Color("#9CA3AF")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	dotOn       = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).SetString("●")
	dotOff      = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).SetString("●")

	systemStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#93C5FD"))
	ownStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	typingStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	alertStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	chatBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151"))
)

type sessionEvent session.Event

// tickMsg re-renders the typing line so TTL decay shows without traffic.
type tickMsg time.Time

// Model is the bubbletea model for one open channel view.
type Model struct {
	sess        *session.Session
	channelName string

	chat  viewport.Model
	input textinput.Model

	width, height int
	connected     bool
	alert         string
	ready         bool
}

func NewModel(sess *session.Session, channelName string) Model {
	in := textinput.New()
	in.Placeholder = "Message…  (/delete <id> removes, esc quits)"
	in.Focus()
	in.CharLimit = 2000

	return Model{
		sess:        sess,
		channelName: channelName,
		input:       in,
		connected:   sess.Connected(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return sessionEvent(<-m.sess.Events())
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		chatHeight := msg.Height - 6
		if chatHeight < 3 {
			chatHeight = 3
		}
		if !m.ready {
			m.chat = viewport.New(msg.Width-4, chatHeight)
			m.ready = true
		} else {
			m.chat.Width = msg.Width - 4
			m.chat.Height = chatHeight
		}
		m.refreshChat()
		return m, nil

	case tickMsg:
		return m, tick()

	case sessionEvent:
		switch session.Event(msg).Kind {
		case session.EventConn:
			m.connected = session.Event(msg).State == chat.StateOpen
		case session.EventAlert:
			m.alert = session.Event(msg).Alert
		default:
			m.refreshChat()
		}
		return m, m.waitEvent()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.sess.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		default:
			m.sess.NoteKeystroke()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) submit() {
	text := m.input.Value()
	m.input.SetValue("")
	m.alert = ""

	if cmd := strings.TrimSpace(text); strings.HasPrefix(cmd, "/delete ") {
		if id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(cmd, "/delete ")), 10, 64); err == nil {
			_ = m.sess.DeleteMessage(context.Background(), id)
		}
		return
	}
	_ = m.sess.SendMessage(text)
}

func (m *Model) refreshChat() {
	if !m.ready {
		return
	}
	viewer := m.sess.Viewer()
	var b strings.Builder
	for _, msg := range m.sess.Messages() {
		b.WriteString(m.renderMessage(msg, viewer))
		b.WriteByte('\n')
	}
	m.chat.SetContent(b.String())
	m.chat.GotoBottom()
}

func (m *Model) renderMessage(msg model.Message, viewer model.Identity) string {
	if msg.Kind == model.KindSystem {
		return systemStyle.Render(msg.Text)
	}
	name := msg.AuthorName
	if name == "" && msg.AuthorUserID != nil {
		name = m.sess.Directory().Username(*msg.AuthorUserID)
	}
	style := authorStyle
	if msg.OwnedBy(viewer) {
		style = ownStyle
		if name == "" {
			name = viewer.DisplayName()
		}
	}
	if name == "" {
		return fmt.Sprintf("[%d] %s", msg.ID, msg.Text)
	}
	return fmt.Sprintf("[%d] %s %s", msg.ID, style.Render(name+":"), msg.Text)
}

func (m Model) typingLine() string {
	typists := m.sess.Typists()
	switch len(typists) {
	case 0:
		return " "
	case 1:
		return typingStyle.Render(typists[0] + " est en train d'écrire…")
	default:
		return typingStyle.Render(strings.Join(typists, ", ") + " sont en train d'écrire…")
	}
}

func (m Model) View() string {
	if !m.ready {
		return "…"
	}
	dot := dotOff.String()
	if m.connected {
		dot = dotOn.String()
	}
	header := fmt.Sprintf("%s %s", dot, headerStyle.Render("# "+m.channelName))

	status := m.typingLine()
	if m.alert != "" {
		status = alertStyle.Render(m.alert)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		chatBoxStyle.Render(m.chat.View()),
		status,
		m.input.View(),
	)
}
