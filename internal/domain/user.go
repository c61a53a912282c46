package domain

import "strings"

type Role string

const (
	RoleStudent             Role = "student"
	RoleTeacher             Role = "teacher"
	RoleAdministrativeStaff Role = "administrative-staff"
	RoleDepartmentHead      Role = "department-head"
)

// Known reports whether r is one of the stored base roles. The derived
// department-head role is never stored on a user.
func (r Role) Known() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdministrativeStaff:
		return true
	}
	return false
}

type User struct {
	ID           int64   `db:"id"`
	FirstName    string  `db:"first_name"`
	LastName     string  `db:"last_name"`
	Email        string  `db:"email"`
	CIN          string  `db:"cin"`
	PasswordHash *string `db:"password_hash"`
	Phone        *string `db:"phone"`
	Image        *string `db:"image"`
	Role         Role    `db:"role"`
}

func (u User) Exists() bool {
	return u.ID != 0
}

// Hash returns the stored credential hash, empty when none is set.
func (u User) Hash() string {
	if u.PasswordHash == nil {
		return ""
	}
	return *u.PasswordHash
}

// IsActivated is true iff a non-blank credential hash is stored.
func (u User) IsActivated() bool {
	return strings.TrimSpace(u.Hash()) != ""
}
