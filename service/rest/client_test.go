package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"RTCSession/tools/errs"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("session"); err != nil || c.Value != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user_id":"7","username":"alice","email":"alice@example.com"}`))
	})
	mux.HandleFunc("/api/channel-messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "12", r.URL.Query().Get("channel_id"))
		_, _ = w.Write([]byte(`{"messages":[
			{"id":1,"message":"hello","time":"2025-06-01T12:00:00Z","user":7,"username":"alice"},
			{"id":2,"message":"no timestamp","user":"8"}
		]}`))
	})
	mux.HandleFunc("/api/allusers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7,"username":"alice","avatar":"https://cdn/a.png"},{"id":8,"username":"bob"}]`))
	})
	mux.HandleFunc("/api/user-servers", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"servers":[{"server_id":3,"server_name":"s3"},{"id":4,"name":"s4"}]}`))
	})
	mux.HandleFunc("/api/server-members", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"members":[{"user_id":7,"role":"Fondateur","status":"online"},{"user_id":8,"role":"Membre"}]}`))
	})
	mux.HandleFunc("/api/server-channels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("server_id"))
		_, _ = w.Write([]byte(`{"channels":[
			{"id":21,"name":"random","position":2},
			{"id":20,"name":"general","position":1}
		]}`))
	})
	mux.HandleFunc("/api/message/delete", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Non autorisé"}`))
	})
	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T) (*Client, func()) {
	srv := newTestServer(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	c.SetSessionCookie("session", "secret")
	return c, srv.Close
}

func TestCurrentUser(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	id, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id.UserID)
	assert.Equal(t, "alice", id.Username)
}

func TestCurrentUserUnauthorized(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.CurrentUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnauthorized))
}

func TestChannelMessagesNormalization(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	msgs, err := c.ChannelMessages(context.Background(), 12)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "1", msgs[0].ServerMsgID)
	assert.Equal(t, "hello", msgs[0].Text)
	require.NotNil(t, msgs[0].AuthorUserID)
	assert.Equal(t, int64(7), *msgs[0].AuthorUserID)
	assert.Equal(t, "alice", msgs[0].AuthorName)

	assert.False(t, msgs[1].Timestamp.IsZero(), "missing timestamp defaults to normalization-time now")
}

func TestAllUsersBareArray(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	users, err := c.AllUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
}

func TestUserServersKeyVariants(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	srvs, err := c.UserServers(context.Background())
	require.NoError(t, err)
	require.Len(t, srvs, 2)
	assert.Equal(t, int64(3), srvs[0].ID)
	assert.Equal(t, "s3", srvs[0].Name)
	assert.Equal(t, int64(4), srvs[1].ID)
	assert.Equal(t, "s4", srvs[1].Name)
}

func TestServerMembersRoleParsing(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	members, err := c.ServerMembers(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "founder", string(members[0].Role))
	assert.Equal(t, "online", string(members[0].Status))
	assert.Equal(t, "member", string(members[1].Role))
}

func TestServerChannelsSortedByPosition(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	channels, err := c.ServerChannels(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "general", channels[0].Name)
	assert.Equal(t, "random", channels[1].Name)
}

func TestDeleteMessageRejection(t *testing.T) {
	c, done := newTestClient(t)
	defer done()

	err := c.DeleteMessage(context.Background(), "42")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrCommandRejected))
	assert.Contains(t, err.Error(), "Non autorisé")
}
