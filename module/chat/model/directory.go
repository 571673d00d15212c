package model

// DirectoryEntry is one row of the bulk id→profile lookup table. The
// table is wholesale-refreshed; entries are never patched in place.
type DirectoryEntry struct {
	UserID    int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar,omitempty"`
	Email     string `json:"email,omitempty"`
}
