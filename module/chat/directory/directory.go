package directory

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"RTCSession/logger"
	"RTCSession/module/chat/model"
)

// Source is the bulk directory provider.
type Source interface {
	AllUsers(ctx context.Context) ([]model.DirectoryEntry, error)
}

// Resolver caches the id→profile table for one view. The cache is
// wholesale-replaced by Refresh and never patched incrementally; a failed
// refresh leaves the previous snapshot in place.
type Resolver struct {
	mu   sync.RWMutex
	src  Source
	byID map[int64]model.DirectoryEntry
}

func New(src Source) *Resolver {
	return &Resolver{
		src:  src,
		byID: make(map[int64]model.DirectoryEntry),
	}
}

// Refresh reloads the whole table. Idempotent.
func (r *Resolver) Refresh(ctx context.Context) error {
	entries, err := r.src.AllUsers(ctx)
	if err != nil {
		logger.Warnf("[directory] refresh failed, keeping previous cache: %v", err)
		return err
	}
	next := make(map[int64]model.DirectoryEntry, len(entries))
	for _, e := range entries {
		next[e.UserID] = e
	}
	r.mu.Lock()
	r.byID = next
	r.mu.Unlock()
	return nil
}

func (r *Resolver) Lookup(userID int64) (model.DirectoryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[userID]
	return e, ok
}

// Username resolves a display name, degrading to "Unknown".
func (r *Resolver) Username(userID int64) string {
	if e, ok := r.Lookup(userID); ok && e.Username != "" {
		return e.Username
	}
	return "Unknown"
}

// AvatarURL resolves an avatar, degrading to the deterministic generated
// fallback keyed by username — never to an empty value.
func (r *Resolver) AvatarURL(userID int64) string {
	if e, ok := r.Lookup(userID); ok {
		if e.AvatarURL != "" {
			return e.AvatarURL
		}
		if e.Username != "" {
			return GeneratedAvatar(e.Username)
		}
	}
	return GeneratedAvatar("Unknown")
}

func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// GeneratedAvatar is the fallback avatar the profile card uses when no
// uploaded image exists: deterministic per username.
func GeneratedAvatar(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", url.QueryEscape(username))
}
