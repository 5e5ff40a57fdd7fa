package auth

import (
	"errors"
	"testing"
)

func TestAuthorizeMatrix(t *testing.T) {
	cases := []struct {
		action  Action
		allowed []Role
	}{
		{ActionDeleteUser, []Role{RoleAdmin, RoleSuperAdmin}},
		{ActionDeleteEvent, []Role{RoleAdmin, RoleSuperAdmin}},
		{ActionEditEvent, []Role{RoleAdmin}},
		{ActionUpdateApplicationStatus, []Role{RoleAdmin, RoleManager}},
		{ActionEditUser, []Role{RoleAdmin, RoleSuperAdmin}},
		{ActionCreateComment, []Role{RoleAdmin, RoleManager}},
		{ActionManageRoles, []Role{RoleSuperAdmin}},
	}
	roles := []Role{RoleUser, RoleAdmin, RoleSuperAdmin, RoleManager}
	for _, tc := range cases {
		for _, role := range roles {
			want := false
			for _, r := range tc.allowed {
				if r == role {
					want = true
				}
			}
			p := Principal{ID: "p", Role: role, Active: true}
			if got := Authorize(p, tc.action); got != want {
				t.Fatalf("Authorize(%s, %s) = %v, want %v", role, tc.action, got, want)
			}
		}
	}
}

func TestAuthorizeDeleteEvent(t *testing.T) {
	if Authorize(Principal{Role: RoleUser, Active: true}, ActionDeleteEvent) {
		t.Fatalf("user must not delete events")
	}
	if !Authorize(Principal{Role: RoleAdmin, Active: true}, ActionDeleteEvent) {
		t.Fatalf("admin must delete events")
	}
}

func TestAuthorizeInactiveAndUnknown(t *testing.T) {
	if Authorize(Principal{Role: RoleSuperAdmin}, ActionDeleteUser) {
		t.Fatalf("inactive principal authorized")
	}
	if Authorize(Principal{Role: RoleSuperAdmin, Active: true}, Action("launch_rockets")) {
		t.Fatalf("unknown action authorized")
	}
}

func TestAuthorizeSelf(t *testing.T) {
	user := Principal{ID: "u1", Role: RoleUser, Active: true}
	if !AuthorizeSelf(user, "u1", ActionEditUser) {
		t.Fatalf("self edit denied")
	}
	if AuthorizeSelf(user, "u2", ActionEditUser) {
		t.Fatalf("user edited someone else")
	}
	admin := Principal{ID: "a1", Role: RoleAdmin, Active: true}
	if !AuthorizeSelf(admin, "u2", ActionEditUser) {
		t.Fatalf("admin edit denied")
	}
	if err := RequireSelf(user, "u2", ActionEditUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	if err := Require(Principal{Role: RoleManager, Active: true}, ActionUpdateApplicationStatus); err != nil {
		t.Fatalf("manager denied: %v", err)
	}
	if err := Require(Principal{Role: RoleUser, Active: true}, ActionUpdateApplicationStatus); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
