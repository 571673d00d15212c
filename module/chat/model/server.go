package model

type Server struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
	IsOwner bool   `json:"isOwner,omitempty"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}
