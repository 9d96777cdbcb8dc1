package gate

// Permission is a single named capability granted by a role.
type Permission string

const (
	PermCreate       Permission = "create"
	PermRead         Permission = "read"
	PermUpdate       Permission = "update"
	PermDelete       Permission = "delete"
	PermExport       Permission = "export"
	PermManageUsers  Permission = "manage_users"
	PermSystemConfig Permission = "system_config"
)

// rolePermissions is the fixed role → permission table. There are no per-user
// grants: a role fully determines what its holders may do.
var rolePermissions = map[Role][]Permission{
	RoleAdministrator: {PermCreate, PermRead, PermUpdate, PermDelete, PermExport, PermManageUsers, PermSystemConfig},
	RoleManager:       {PermCreate, PermRead, PermUpdate, PermDelete, PermExport},
	RoleUser:          {PermRead},
}

// PermissionsFor returns a copy of the permission list for a role.
// Unknown roles get an empty list.
func PermissionsFor(r Role) []Permission {
	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
