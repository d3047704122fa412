package models

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleOwner, RoleViewer, true},
		{RoleOwner, RoleOwner, true},
		{RoleAdmin, RoleOwner, false},
		{RoleAdmin, RoleAdmin, true},
		{RoleMember, RoleAdmin, false},
		{RoleMember, RoleViewer, true},
		{RoleViewer, RoleMember, false},
		{RoleViewer, RoleViewer, true},
		{RoleNone, RoleViewer, false},
		{Role("bogus"), RoleViewer, false},
	}

	for _, tt := range tests {
		if got := tt.role.AtLeast(tt.min); got != tt.want {
			t.Errorf("Role(%q).AtLeast(%q) = %v, want %v", tt.role, tt.min, got, tt.want)
		}
	}
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role       Role
		canRead    bool
		canWrite   bool
		canManage  bool
	}{
		{RoleOwner, true, true, true},
		{RoleAdmin, true, true, true},
		{RoleMember, true, true, false},
		{RoleViewer, true, false, false},
		{RoleNone, false, false, false},
	}

	for _, tt := range tests {
		if got := tt.role.CanRead(); got != tt.canRead {
			t.Errorf("Role(%q).CanRead() = %v, want %v", tt.role, got, tt.canRead)
		}
		if got := tt.role.CanWrite(); got != tt.canWrite {
			t.Errorf("Role(%q).CanWrite() = %v, want %v", tt.role, got, tt.canWrite)
		}
		if got := tt.role.CanManageMembers(); got != tt.canManage {
			t.Errorf("Role(%q).CanManageMembers() = %v, want %v", tt.role, got, tt.canManage)
		}
	}
}

func TestParseRole(t *testing.T) {
	if got, ok := ParseRole("admin"); !ok || got != RoleAdmin {
		t.Errorf("ParseRole(admin) = %q, %v, want admin, true", got, ok)
	}
	if got, ok := ParseRole("superuser"); ok || got != RoleNone {
		t.Errorf("ParseRole(superuser) = %q, %v, want RoleNone, false", got, ok)
	}
	if got, ok := ParseRole(""); ok || got != RoleNone {
		t.Errorf("ParseRole(empty) = %q, %v, want RoleNone, false", got, ok)
	}
}
