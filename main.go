package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"RTCSession/global"
	"RTCSession/logger"
	"RTCSession/module/chat/model"
	"RTCSession/module/chat/session"
	"RTCSession/service/rest"
	"RTCSession/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	var (
		baseURL     = flag.String("base-url", global.Global.BaseURL, "REST origin")
		wsURL       = flag.String("ws-url", global.Global.WSURL, "push endpoint")
		serverID    = flag.Int64("server", 0, "server id")
		channelID   = flag.Int64("channel", 0, "channel id")
		channelName = flag.String("channel-name", "general", "channel display name")
		cookie      = flag.String("session-cookie", "", "session cookie value (name=value)")
		role        = flag.String("role", "member", "viewer role on this server (founder|admin|member)")
	)
	flag.Parse()
	defer logger.Sync()

	if *serverID == 0 {
		fmt.Fprintln(os.Stderr, "usage: rtcsession -server <id> [-channel <id> | -channel-name <name>] [-session-cookie name=value]")
		os.Exit(2)
	}

	app := global.Global
	app.BaseURL = *baseURL
	app.WSURL = *wsURL

	backend, err := rest.NewClient(app.BaseURL)
	if err != nil {
		logger.Errorf("rest client: %v", err)
		os.Exit(1)
	}
	if *cookie != "" {
		name, value := splitCookie(*cookie)
		backend.SetSessionCookie(name, value)
	}

	if *channelID == 0 {
		ch, err := resolveChannel(backend, *serverID, *channelName)
		if err != nil {
			logger.Errorf("resolve channel %q: %v", *channelName, err)
			os.Exit(1)
		}
		*channelID = ch.ID
		*channelName = ch.Name
	}

	sess, err := session.Open(context.Background(), session.Conf{
		ServerID:   *serverID,
		ChannelID:  *channelID,
		ViewerRole: model.ParseRole(*role),
		App:        app,
	}, backend)
	if err != nil {
		logger.Errorf("open session: %v", err)
		os.Exit(1)
	}
	defer sess.Close()

	prog := tea.NewProgram(ui.NewModel(sess, *channelName), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		logger.Errorf("ui: %v", err)
		os.Exit(1)
	}
}

// resolveChannel maps a channel name to its id; an unknown name falls
// back to the server's first channel by position.
func resolveChannel(backend *rest.Client, serverID int64, name string) (model.Channel, error) {
	channels, err := backend.ServerChannels(context.Background(), serverID)
	if err != nil {
		return model.Channel{}, err
	}
	if len(channels) == 0 {
		return model.Channel{}, fmt.Errorf("server %d has no channels", serverID)
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch, nil
		}
	}
	return channels[0], nil
}

func splitCookie(s string) (string, string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:]
		}
	}
	return "session", s
}
