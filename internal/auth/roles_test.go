package auth

import "testing"

func TestMembershipRole_IsValid(t *testing.T) {
	for _, role := range []MembershipRole{RoleOwner, RoleAdmin, RoleMember, RoleViewer} {
		if !role.IsValid() {
			t.Errorf("Expected %v to be valid", role)
		}
	}

	for _, role := range []MembershipRole{"", "admin", "SUPERUSER"} {
		if role.IsValid() {
			t.Errorf("Expected %q to be invalid", role)
		}
	}
}

func TestMembershipRole_HasPermission(t *testing.T) {
	tests := []struct {
		role     MembershipRole
		required MembershipRole
		want     bool
	}{
		{RoleOwner, RoleAdmin, true},
		{RoleOwner, RoleOwner, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleOwner, false},
		{RoleMember, RoleViewer, true},
		{RoleMember, RoleAdmin, false},
		{RoleViewer, RoleViewer, true},
		{RoleViewer, RoleMember, false},
		{MembershipRole("bogus"), RoleViewer, false},
	}

	for _, tt := range tests {
		if got := tt.role.HasPermission(tt.required); got != tt.want {
			t.Errorf("%v.HasPermission(%v) = %v, want %v", tt.role, tt.required, got, tt.want)
		}
	}
}
