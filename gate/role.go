package gate

// Role is one of the three fixed application roles.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleManager       Role = "Manager"
	RoleUser          Role = "User"
)

// rank orders roles for hierarchy checks. Unknown roles rank 0.
func (r Role) rank() int {
	switch r {
	case RoleAdministrator:
		return 3
	case RoleManager:
		return 2
	case RoleUser:
		return 1
	}
	return 0
}

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool { return r.rank() > 0 }

// AtLeast reports whether r ranks at or above required. This is a hierarchy
// check, not an equality check: Administrator passes a Manager-level gate.
// An unknown role on either side never passes.
func (r Role) AtLeast(required Role) bool {
	return required.rank() > 0 && r.rank() >= required.rank()
}
