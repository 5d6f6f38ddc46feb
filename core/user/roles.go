package user

import "github.com/gcl-lms/web/core"

// Role is the canonical role of a user.
type Role string

// Roles
const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var (
	// the backend and its clients mix English and Spanish role names
	roleAliases = map[string]Role{
		"admin":         RoleAdmin,
		"administrador": RoleAdmin,
		"teacher":       RoleTeacher,
		"profesor":      RoleTeacher,
		"docente":       RoleTeacher,
		"student":       RoleStudent,
		"estudiante":    RoleStudent,
		"alumno":        RoleStudent,
	}

	roleLabels = map[Role]string{
		RoleAdmin:   "Admin",
		RoleTeacher: "Teacher",
		RoleStudent: "Student",
	}
)

// ParseRole maps any known spelling of a role to its canonical Role.
func ParseRole(s string) (Role, bool) {
	role, ok := roleAliases[core.CleanString(s, true /* lower */)]
	return role, ok
}

func (r Role) String() string { return string(r) }

func (r Role) Label() string { return roleLabels[r] }

// Matches reports whether `raw` is a spelling of r.
func (r Role) Matches(raw string) bool {
	role, ok := ParseRole(raw)
	return ok && role == r
}
