package auth

import (
	"context"

	"github.com/spectrum-media/quote-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      string
	DisplayName string
	Email       string
	Role        domain.UserRole
}

type contextKey string

const userContextKey contextKey = "userContext"

// SystemUserID identifies API key callers
const SystemUserID = "system"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok && user != nil
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRole) bool {
	return u.Role == role
}

// HasAnyRole checks if user has any of the specified roles. The system
// role satisfies every check.
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	if u.Role == domain.RoleSystem {
		return true
	}
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user is an administrator or the system user
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin || u.Role == domain.RoleSystem
}

// SystemUser returns the identity assigned to API key callers
func SystemUser() *UserContext {
	return &UserContext{
		UserID:      SystemUserID,
		DisplayName: "System",
		Email:       "system@localhost",
		Role:        domain.RoleSystem,
	}
}
