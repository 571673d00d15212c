package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"RTCSession/module/chat/model"
	"RTCSession/tools/decode"
	"RTCSession/tools/errs"

	"github.com/pkg/errors"
)

// Client talks to the REST collaborators of the session core: identity,
// history, directory, memberships and the delete command sink. All calls
// are session-cookie credentialed; the cookie value is issued elsewhere
// and injected via SetSessionCookie.
type Client struct {
	base *url.URL
	http *http.Client
}

func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "cookie jar")
	}
	return &Client{
		base: u,
		http: &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// SetSessionCookie installs the session credential for every later call.
func (c *Client) SetSessionCookie(name, value string) {
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

func (c *Client) endpoint(p string, q url.Values) string {
	u := *c.base
	u.Path = p
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errs.ErrNetwork.WithDetail(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.ErrNetwork.WithDetail(fmt.Sprintf("GET %s: status %d", rawURL, resp.StatusCode))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.ErrNetwork.WithDetail(err.Error())
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s", rawURL)
	}
	return nil
}

type identityPayload struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

// CurrentUser performs the identity check. Failure here must abort any
// connect attempt, so the error is surfaced instead of degraded.
func (c *Client) CurrentUser(ctx context.Context) (*model.Identity, error) {
	var m map[string]any
	if err := c.getJSON(ctx, c.endpoint("/api/user", nil), &m); err != nil {
		return nil, errs.ErrUnauthorized.WithDetail(err.Error())
	}
	p, err := decode.DecodeMap[identityPayload](m)
	if err != nil {
		return nil, errs.ErrUnauthorized.WithDetail(err.Error())
	}
	return &model.Identity{
		UserID:   p.UserID,
		Username: p.Username,
		Email:    p.Email,
		Avatar:   p.Avatar,
	}, nil
}

type rawHistoryMessage struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Time     string `json:"time"`
	User     *int64 `json:"user"`
	Username string `json:"username"`
}

// ChannelMessages fetches persisted history for one channel. Records are
// normalized here: a missing timestamp defaults to "now at normalization
// time". Session-local ids are assigned later, at stream seeding.
func (c *Client) ChannelMessages(ctx context.Context, channelID int64) ([]model.Message, error) {
	var payload struct {
		Messages []map[string]any `json:"messages"`
	}
	q := url.Values{"channel_id": {fmt.Sprint(channelID)}}
	if err := c.getJSON(ctx, c.endpoint("/api/channel-messages", q), &payload); err != nil {
		return nil, err
	}

	out := make([]model.Message, 0, len(payload.Messages))
	for _, raw := range payload.Messages {
		rec, err := decode.DecodeMap[rawHistoryMessage](raw)
		if err != nil {
			continue // one malformed record must not sink the batch
		}
		ts := time.Now()
		if rec.Time != "" {
			if parsed, perr := parseTimestamp(rec.Time); perr == nil {
				ts = parsed
			}
		}
		out = append(out, model.Message{
			ServerMsgID:  rec.ID,
			Text:         rec.Message,
			Kind:         model.KindChat,
			Timestamp:    ts,
			AuthorUserID: rec.User,
			AuthorName:   rec.Username,
		})
	}
	return out, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// AllUsers bulk-loads the directory. The API historically returned either
// a bare array or {users: [...]}; both shapes are accepted.
func (c *Client) AllUsers(ctx context.Context) ([]model.DirectoryEntry, error) {
	var body json.RawMessage
	if err := c.getJSON(ctx, c.endpoint("/api/allusers", nil), &body); err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		var wrapped struct {
			Users []map[string]any `json:"users"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return nil, errors.Wrap(err, "decode allusers")
		}
		rows = wrapped.Users
	}

	out := make([]model.DirectoryEntry, 0, len(rows))
	for _, raw := range rows {
		e, err := decode.DecodeMap[model.DirectoryEntry](raw)
		if err != nil || e.UserID == 0 {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

type rawServer struct {
	ID          int64  `json:"id"`
	ServerID    int64  `json:"server_id"`
	Name        string `json:"name"`
	ServerName  string `json:"server_name"`
	Image       string `json:"image"`
	ServerImage string `json:"server_image"`
}

// UserServers lists the viewer's servers. Field names vary by backend
// version (id/server_id, name/server_name), normalized here.
func (c *Client) UserServers(ctx context.Context) ([]model.Server, error) {
	var payload struct {
		Servers []map[string]any `json:"servers"`
	}
	if err := c.getJSON(ctx, c.endpoint("/api/user-servers", nil), &payload); err != nil {
		return nil, err
	}
	out := make([]model.Server, 0, len(payload.Servers))
	for _, raw := range payload.Servers {
		s, err := decode.DecodeMap[rawServer](raw)
		if err != nil {
			continue
		}
		srv := model.Server{ID: s.ID, Name: s.Name, Image: s.Image}
		if srv.ID == 0 {
			srv.ID = s.ServerID
		}
		if srv.Name == "" {
			srv.Name = s.ServerName
		}
		if srv.Name == "" {
			srv.Name = "Serveur sans nom"
		}
		if srv.Image == "" {
			srv.Image = s.ServerImage
		}
		out = append(out, srv)
	}
	return out, nil
}

// ServerChannels lists one server's channels, ordered by position (ties
// keep backend order).
func (c *Client) ServerChannels(ctx context.Context, serverID int64) ([]model.Channel, error) {
	var payload struct {
		Channels []map[string]any `json:"channels"`
	}
	q := url.Values{"server_id": {fmt.Sprint(serverID)}}
	if err := c.getJSON(ctx, c.endpoint("/api/server-channels", q), &payload); err != nil {
		return nil, err
	}
	out := make([]model.Channel, 0, len(payload.Channels))
	for _, raw := range payload.Channels {
		ch, err := decode.DecodeMap[model.Channel](raw)
		if err != nil {
			continue
		}
		out = append(out, *ch)
	}
	model.SortChannels(out)
	return out, nil
}

type rawMember struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"username"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// ServerMembers lists the membership of one server.
func (c *Client) ServerMembers(ctx context.Context, serverID int64) ([]model.Member, error) {
	var payload struct {
		Members []map[string]any `json:"members"`
	}
	q := url.Values{"server_id": {fmt.Sprint(serverID)}}
	if err := c.getJSON(ctx, c.endpoint("/api/server-members", q), &payload); err != nil {
		return nil, err
	}
	out := make([]model.Member, 0, len(payload.Members))
	for _, raw := range payload.Members {
		m, err := decode.DecodeMap[rawMember](raw)
		if err != nil {
			continue
		}
		status := model.StatusOffline
		if m.Status == string(model.StatusOnline) {
			status = model.StatusOnline
		}
		out = append(out, model.Member{
			UserID:   m.UserID,
			Username: m.Name,
			Role:     model.ParseRole(m.Role),
			Status:   status,
		})
	}
	return out, nil
}

// DeleteMessage issues the per-channel deletion command. A rejection is a
// command failure and is surfaced to the caller for compensation.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	body, err := json.Marshal(map[string]string{"message_id": messageID})
	if err != nil {
		return errors.Wrap(err, "marshal delete body")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/api/message/delete", nil), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.ErrNetwork.WithDetail(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail := fmt.Sprintf("status %d", resp.StatusCode)
	var rejection struct {
		Error string `json:"error"`
	}
	if data, rerr := io.ReadAll(resp.Body); rerr == nil {
		if json.Unmarshal(data, &rejection) == nil && rejection.Error != "" {
			detail = rejection.Error
		}
	}
	return errs.ErrCommandRejected.WithDetail(detail)
}
