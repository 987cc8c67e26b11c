package authz

import (
	"context"
	"time"
)

// Principal is the verified claim set of the caller, built once per request
// by the token verifier. It is never persisted.
type Principal struct {
	UserID      string
	Name        string
	Email       string
	Roles       []Role
	Permissions []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// HasRole reports whether the principal carries the given role claim.
func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasPermission reports whether the principal carries the given permission claim.
func (p Principal) HasPermission(perm string) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context for the request lifetime.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
