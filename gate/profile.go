package gate

import "context"

// Profile represents a resolved subject: a role plus the permission set it
// grants. Profiles are immutable once built.
type Profile interface {
	Role() Role
	HasPermission(p Permission) bool
	Permissions() []Permission
}

// ProfileResolver resolves a user to their profile.
// U is the subject type (e.g. uint for user IDs).
// A nil profile with a nil error means "no profile" and is treated as a denial.
type ProfileResolver[U any] interface {
	Resolve(ctx context.Context, user U) (Profile, error)
}

// StaticProfile is the table-driven Profile implementation used everywhere in
// the application: the permission set is derived from the role at build time.
type StaticProfile struct {
	role  Role
	perms map[Permission]bool
}

// NewStaticProfile builds a profile for a role using the fixed role table.
func NewStaticProfile(role Role) *StaticProfile {
	p := &StaticProfile{role: role, perms: make(map[Permission]bool)}
	for _, perm := range rolePermissions[role] {
		p.perms[perm] = true
	}
	return p
}

func (p *StaticProfile) Role() Role { return p.role }

// HasPermission checks membership in the role's fixed permission list.
func (p *StaticProfile) HasPermission(perm Permission) bool { return p.perms[perm] }

// Permissions returns all permissions in this profile.
func (p *StaticProfile) Permissions() []Permission {
	return PermissionsFor(p.role)
}

// StaticResolver is a simple in-memory resolver for tests.
type StaticResolver[U comparable] struct {
	profiles map[U]Profile
}

// NewStaticResolver creates a resolver with no mappings.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{profiles: make(map[U]Profile)}
}

// Set assigns a profile to a user.
func (r *StaticResolver[U]) Set(user U, profile Profile) {
	r.profiles[user] = profile
}

// Resolve returns the profile for the given user, or nil if unknown.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (Profile, error) {
	return r.profiles[user], nil
}
