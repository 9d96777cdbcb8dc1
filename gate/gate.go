// Package gate implements role-based authorization: three fixed roles ordered
// by rank, each granting a static permission list. A Gate answers "may this
// user do X" through a ProfileResolver; denials are reported as errors or
// booleans, never as panics.
//
// The package has no dependency on domain models. U is the subject type:
//   - Gate[uint] for user-ID based checks (the application default)
//   - Gate[string] or richer types where callers need them
package gate

import "context"

// Gate is the central authorization checkpoint.
// U must be comparable so the zero value can stand for "no user".
type Gate[U comparable] struct {
	resolver ProfileResolver[U]
}

// New creates a gate backed by the given profile resolver.
func New[U comparable](resolver ProfileResolver[U]) *Gate[U] {
	return &Gate[U]{resolver: resolver}
}

// Authorize returns nil if user holds the permission.
// Returns ErrUnauthorized for a zero-value user or a missing permission, and
// ErrNoProfile when the resolver yields no profile (unknown or disabled user).
func (g *Gate[U]) Authorize(ctx context.Context, user U, perm Permission) error {
	var zero U
	if user == zero {
		return ErrUnauthorized
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return err
	}
	if profile == nil {
		return ErrNoProfile
	}
	if !profile.HasPermission(perm) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, perm Permission) bool {
	return g.Authorize(ctx, user, perm) == nil
}

// HasRole reports whether the user's role ranks at or above required.
func (g *Gate[U]) HasRole(ctx context.Context, user U, required Role) bool {
	var zero U
	if user == zero {
		return false
	}
	profile, err := g.resolver.Resolve(ctx, user)
	if err != nil || profile == nil {
		return false
	}
	return profile.Role().AtLeast(required)
}
