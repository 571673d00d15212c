package model

import "strings"

type Role string

const (
	RoleFounder Role = "founder"
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
)

// ParseRole maps the backend's display labels onto the three-tier
// hierarchy. The backend speaks French ("Fondateur", "Admin",
// "Administrateur", everything else is a plain member).
func ParseRole(label string) Role {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "fondateur", "founder":
		return RoleFounder
	case "admin", "administrateur":
		return RoleAdmin
	default:
		return RoleMember
	}
}

type MemberStatus string

const (
	StatusOnline  MemberStatus = "online"
	StatusOffline MemberStatus = "offline"
)

type Member struct {
	UserID   int64        `json:"user_id"`
	Username string       `json:"username,omitempty"`
	Role     Role         `json:"role"`
	Status   MemberStatus `json:"status"`
}
