package model

import "time"

type MessageKind string

const (
	KindChat   MessageKind = "chat"
	KindSystem MessageKind = "system"
)

// Message is one entry of the channel view.
//
// ID is assigned client-side at ingestion time and is monotonic within one
// session; it exists only as a stable render key. ServerMsgID carries the
// backend's own identifier when known and is what delete commands and
// message_deleted echoes correlate on.
type Message struct {
	ID          int64       `json:"id"`
	ServerMsgID string      `json:"messageId,omitempty"`
	Text        string      `json:"text"`
	Kind        MessageKind `json:"kind"`
	Timestamp   time.Time   `json:"timestamp"`

	// AuthorUserID is nil when the frame carried no resolvable author.
	AuthorUserID *int64 `json:"authorUserId,omitempty"`
	// AuthorName is the display hint parsed from the "name: body" prefix
	// or supplied by the history payload.
	AuthorName string `json:"authorNameHint,omitempty"`
}

// OwnedBy reports whether the message belongs to the given viewer: a
// user-id match wins, with the author name hint matched against username
// or email as fallback for frames that only carry the prefix.
func (m *Message) OwnedBy(v Identity) bool {
	if m.AuthorUserID != nil && v.UserID != 0 && *m.AuthorUserID == v.UserID {
		return true
	}
	if m.AuthorName == "" {
		return false
	}
	return m.AuthorName == v.Username || m.AuthorName == v.Email
}
