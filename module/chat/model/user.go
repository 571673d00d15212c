package model

import "strings"

// Identity is the authenticated viewer as reported by the identity
// endpoint. Role is the viewer's role on the currently selected server and
// may be RoleMember when the membership payload carries nothing better.
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
	Role     Role   `json:"role,omitempty"`
}

// DisplayName falls back to the email local part, then "User".
func (v Identity) DisplayName() string {
	if v.Username != "" {
		return v.Username
	}
	if v.Email != "" {
		if at := strings.Index(v.Email, "@"); at > 0 {
			return v.Email[:at]
		}
		return v.Email
	}
	return "User"
}

// HasManageMessages reports the manage-messages capability derived from
// the viewer's role. The server is the authority; this only gates UI.
func (v Identity) HasManageMessages() bool {
	return v.Role == RoleFounder || v.Role == RoleAdmin
}
