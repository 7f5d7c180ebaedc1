package principal

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("principal: authentication required")
	ErrForbidden       = errors.New("principal: forbidden")
)

type Role string

const (
	RoleGuest  Role = "guest"
	RoleHost   Role = "host"
	RoleSystem Role = "system"
)

// Principal is the caller as asserted by the upstream gateway.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsZero() bool { return strings.TrimSpace(p.UserID) == "" }

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.IsZero() {
		return Principal{}, false
	}
	return p, true
}

// Scoped is implemented by messages that need an authenticated caller.
// An empty RequiredRole accepts any role.
type Scoped interface {
	RequiredRole() Role
}

// Authorizer enforces Scoped on commands and queries.
type Authorizer struct{}

func (Authorizer) Authorize(ctx context.Context, message any) error {
	scoped, ok := message.(Scoped)
	if !ok {
		return nil
	}
	p, ok := FromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if role := scoped.RequiredRole(); role != "" && p.Role != role && p.Role != RoleSystem {
		return ErrForbidden
	}
	return nil
}
