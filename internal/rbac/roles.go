package rbac

import "fmt"

// Role is a closed enumeration. The store enforces the same set with a check
// constraint; anything else is rejected before it reaches persistence.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// ParseRole maps free text to a Role or fails.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// RolePermissions is the default policy.
var RolePermissions = map[Role][]string{
	RoleStudent: {
		"exam:view",
		"exam:list-own",
		"attempt:start",
		"attempt:answer",
		"attempt:submit",
		"attempt:view-own",
	},
	RoleTeacher: {
		"course:manage",
		"exam:create",
		"exam:edit-own",
		"exam:delete-own",
		"exam:view",
		"exam:assign",
		"exam:export",
		"question:manage",
		"bank:manage",
		"attempt:view-all",
	},
	RoleAdmin: {
		"*", // everything
	},
}
