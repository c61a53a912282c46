package domain

// RoleRecord is the per-role profile row owned 1:1 by a user. Only the
// fields of the matching Kind are meaningful; all of them are optional at
// activation time.
type RoleRecord struct {
	UserID int64
	Kind   Role

	GroupID     *int64
	SpecialtyID *int64

	DepartmentID *int64

	Position *string
}

func NewRoleRecord(userID int64, kind Role) RoleRecord {
	return RoleRecord{UserID: userID, Kind: kind}
}

// ResolveRoles derives the ordered role list for a stored role. A teacher who
// heads a department also gets RoleDepartmentHead after the base role. Unknown
// stored roles resolve to an empty list.
func ResolveRoles(base Role, departmentHead bool) []string {
	roles := make([]string, 0, 2)
	if !base.Known() {
		return roles
	}

	roles = append(roles, string(base))
	if base == RoleTeacher && departmentHead {
		roles = append(roles, string(RoleDepartmentHead))
	}
	return roles
}
