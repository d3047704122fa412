// internal/domain/models/role.go
package models

// Role is a user's role within a workspace or project. Roles form a
// strict ordering (viewer < member < admin < owner) and every capability
// predicate is derived from that ordering, so the predicates cannot
// drift out of sync as roles are added.
type Role string

const (
	RoleNone   Role = ""
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// roleRank maps each role to its position in the ordering. RoleNone
// ranks below every real role.
var roleRank = map[Role]int{
	RoleNone:   0,
	RoleViewer: 1,
	RoleMember: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// Valid reports whether r is one of the four assignable roles.
func (r Role) Valid() bool {
	return r == RoleViewer || r == RoleMember || r == RoleAdmin || r == RoleOwner
}

// AtLeast reports whether r ranks at or above min in the role ordering.
// Unknown roles rank as RoleNone and fail every check.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// CanRead reports whether the role grants read access to the container
// and its tasks. Any membership at all suffices.
func (r Role) CanRead() bool { return r.AtLeast(RoleViewer) }

// CanWrite reports whether the role grants write access to the
// container's tasks. Viewers are read-only.
func (r Role) CanWrite() bool { return r.AtLeast(RoleMember) }

// CanManageMembers reports whether the role grants member management
// (invites, role changes, removals).
func (r Role) CanManageMembers() bool { return r.AtLeast(RoleAdmin) }

// ParseRole normalizes a string into a Role. The second return is
// false for anything that is not an assignable role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.Valid() {
		return RoleNone, false
	}
	return r, true
}
