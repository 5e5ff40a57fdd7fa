package auth

import "fmt"

// Action names a role-gated operation.
type Action string

const (
	ActionDeleteUser              Action = "delete_user"
	ActionDeleteEvent             Action = "delete_event"
	ActionEditEvent               Action = "edit_event"
	ActionUpdateApplicationStatus Action = "update_application_status"
	ActionEditUser                Action = "edit_user"
	ActionCreateEvent             Action = "create_event"
	ActionCreateManager           Action = "create_manager"
	ActionCreateComment           Action = "create_comment"
	ActionManageRoles             Action = "manage_roles"
)

var policy = map[Action][]Role{
	ActionDeleteUser:              {RoleAdmin, RoleSuperAdmin},
	ActionDeleteEvent:             {RoleAdmin, RoleSuperAdmin},
	ActionEditEvent:               {RoleAdmin},
	ActionUpdateApplicationStatus: {RoleAdmin, RoleManager},
	ActionEditUser:                {RoleAdmin, RoleSuperAdmin},
	ActionCreateEvent:             {RoleAdmin, RoleSuperAdmin},
	ActionCreateManager:           {RoleAdmin, RoleSuperAdmin},
	ActionCreateComment:           {RoleAdmin, RoleManager},
	ActionManageRoles:             {RoleSuperAdmin},
}

// Authorize reports whether p may perform a. Unknown actions and inactive
// principals are denied.
func Authorize(p Principal, a Action) bool {
	if !p.Active {
		return false
	}
	for _, r := range policy[a] {
		if p.Role == r {
			return true
		}
	}
	return false
}

// AuthorizeSelf allows an active principal to act on its own record and defers to
// Authorize otherwise.
func AuthorizeSelf(p Principal, targetID string, a Action) bool {
	if p.Active && p.ID != "" && p.ID == targetID {
		return true
	}
	return Authorize(p, a)
}

// Require returns ErrForbidden when p may not perform a.
func Require(p Principal, a Action) error {
	if !Authorize(p, a) {
		return fmt.Errorf("%w: %s", ErrForbidden, a)
	}
	return nil
}

// RequireSelf is Require with the self-service exception of AuthorizeSelf.
func RequireSelf(p Principal, targetID string, a Action) error {
	if !AuthorizeSelf(p, targetID, a) {
		return fmt.Errorf("%w: %s", ErrForbidden, a)
	}
	return nil
}
