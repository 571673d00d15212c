// Package perm mirrors role-derived permissions for UI gating only; the
// server remains the authority on every mutating action.
package perm

import "RTCSession/module/chat/model"

// CanDeleteMessage: own messages are always deletable; otherwise the
// viewer needs the manage-messages capability.
func CanDeleteMessage(viewer model.Identity, msg model.Message) bool {
	if msg.OwnedBy(viewer) {
		return true
	}
	return viewer.HasManageMessages()
}

// CanKick evaluates the three-tier hierarchy, first match wins:
// the founder is immune; only the founder may remove an admin; founders
// and admins may kick anyone else but themselves.
func CanKick(viewer model.Identity, target model.Member) bool {
	if target.Role == model.RoleFounder {
		return false
	}
	if viewer.Role == model.RoleAdmin && target.Role == model.RoleAdmin {
		return false
	}
	if (viewer.Role == model.RoleFounder || viewer.Role == model.RoleAdmin) && viewer.UserID != target.UserID {
		return true
	}
	return false
}
