package perm

import (
	"testing"

	"RTCSession/module/chat/model"

	"github.com/stretchr/testify/assert"
)

func viewer(id int64, role model.Role) model.Identity {
	return model.Identity{UserID: id, Username: "viewer", Role: role}
}

func target(id int64, role model.Role) model.Member {
	return model.Member{UserID: id, Role: role}
}

func TestCanKick(t *testing.T) {
	cases := []struct {
		name   string
		viewer model.Identity
		target model.Member
		want   bool
	}{
		{"founder kicks admin", viewer(1, model.RoleFounder), target(2, model.RoleAdmin), true},
		{"admin cannot kick admin", viewer(1, model.RoleAdmin), target(2, model.RoleAdmin), false},
		{"admin cannot kick founder", viewer(1, model.RoleAdmin), target(2, model.RoleFounder), false},
		{"founder is immune even to founder", viewer(1, model.RoleFounder), target(2, model.RoleFounder), false},
		{"admin kicks member", viewer(1, model.RoleAdmin), target(2, model.RoleMember), true},
		{"founder kicks member", viewer(1, model.RoleFounder), target(2, model.RoleMember), true},
		{"member kicks nobody", viewer(1, model.RoleMember), target(2, model.RoleMember), false},
		{"no self kick", viewer(1, model.RoleFounder), target(1, model.RoleMember), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanKick(tc.viewer, tc.target))
		})
	}
}

func TestCanDeleteMessage(t *testing.T) {
	seven := int64(7)
	own := model.Message{AuthorUserID: &seven, Text: "mine"}
	other := model.Message{Text: "bob: theirs", AuthorName: "bob"}

	assert.True(t, CanDeleteMessage(model.Identity{UserID: 7, Role: model.RoleMember}, own),
		"author always deletes own message")
	assert.False(t, CanDeleteMessage(model.Identity{UserID: 8, Role: model.RoleMember}, own))
	assert.True(t, CanDeleteMessage(model.Identity{UserID: 8, Role: model.RoleAdmin}, other),
		"manage-messages capability covers foreign messages")
	assert.True(t, CanDeleteMessage(model.Identity{UserID: 8, Role: model.RoleFounder}, other))
}

func TestOwnershipByNameHint(t *testing.T) {
	msg := model.Message{AuthorName: "alice", Text: "hello"}
	assert.True(t, CanDeleteMessage(model.Identity{UserID: 3, Username: "alice"}, msg),
		"author prefix matching the viewer's username counts as ownership")
	assert.True(t, CanDeleteMessage(model.Identity{UserID: 3, Email: "alice"}, msg))
}
