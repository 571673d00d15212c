package directory

import (
	"context"
	"testing"

	"RTCSession/module/chat/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	entries []model.DirectoryEntry
	err     error
}

func (f *fakeSource) AllUsers(context.Context) ([]model.DirectoryEntry, error) {
	return f.entries, f.err
}

func TestRefreshReplacesWholesale(t *testing.T) {
	src := &fakeSource{entries: []model.DirectoryEntry{
		{UserID: 1, Username: "alice", AvatarURL: "https://cdn/a.png"},
		{UserID: 2, Username: "bob"},
	}}
	r := New(src)
	require.NoError(t, r.Refresh(context.Background()))
	require.Equal(t, 2, r.Len())

	src.entries = []model.DirectoryEntry{{UserID: 3, Username: "carol"}}
	require.NoError(t, r.Refresh(context.Background()))
	assert.Equal(t, 1, r.Len())
	_, ok := r.Lookup(1)
	assert.False(t, ok, "old rows do not survive a refresh")
}

func TestFailedRefreshKeepsPreviousCache(t *testing.T) {
	src := &fakeSource{entries: []model.DirectoryEntry{{UserID: 1, Username: "alice"}}}
	r := New(src)
	require.NoError(t, r.Refresh(context.Background()))

	src.err = errors.New("boom")
	require.Error(t, r.Refresh(context.Background()))
	assert.Equal(t, "alice", r.Username(1))
}

func TestLookupFallbacks(t *testing.T) {
	src := &fakeSource{entries: []model.DirectoryEntry{
		{UserID: 1, Username: "alice"},
		{UserID: 2, Username: "bob", AvatarURL: "https://cdn/b.png"},
	}}
	r := New(src)
	require.NoError(t, r.Refresh(context.Background()))

	assert.Equal(t, "Unknown", r.Username(99))
	assert.Equal(t, "https://cdn/b.png", r.AvatarURL(2))
	assert.Equal(t, GeneratedAvatar("alice"), r.AvatarURL(1),
		"missing avatar degrades to the generated fallback, never empty")
	assert.NotEmpty(t, r.AvatarURL(99))
	assert.Equal(t, GeneratedAvatar("alice"), GeneratedAvatar("alice"), "deterministic per username")
}
