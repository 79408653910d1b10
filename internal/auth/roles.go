package auth

// MembershipRole represents a user's role within a project for role-based
// access control. The role recorded in an audit log entry is the role held
// at the time of the action, never re-resolved later.
type MembershipRole string

const (
	// RoleOwner has full access including project deletion and member management
	RoleOwner MembershipRole = "OWNER"

	// RoleAdmin can manage project resources and API keys
	RoleAdmin MembershipRole = "ADMIN"

	// RoleMember can create and modify project resources
	RoleMember MembershipRole = "MEMBER"

	// RoleViewer has read-only access
	RoleViewer MembershipRole = "VIEWER"
)

// String returns the string representation of the role
func (r MembershipRole) String() string {
	return string(r)
}

// IsValid checks if the role is a valid membership role
func (r MembershipRole) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

// rank orders roles from least to most privileged.
func (r MembershipRole) rank() int {
	switch r {
	case RoleViewer:
		return 1
	case RoleMember:
		return 2
	case RoleAdmin:
		return 3
	case RoleOwner:
		return 4
	default:
		return 0
	}
}

// HasPermission checks if a role grants at least the required role's access.
func (r MembershipRole) HasPermission(required MembershipRole) bool {
	return r.rank() >= required.rank() && r.rank() > 0
}
