// Package context carries the caller identity and request tracing ids
// through a command.
package context

import (
	"context"
	"slices"
)

// UserContext identifies the authenticated caller. UserID is the id of a
// users row; commands use it as the default receiver and as approved_by.
type UserContext struct {
	UserID    string
	Email     string
	Roles     []string
	SessionID string
}

// HasRole reports whether the caller holds role.
func (u *UserContext) HasRole(role string) bool {
	return u != nil && slices.Contains(u.Roles, role)
}

type userKey struct{}

// WithUser returns ctx carrying user.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the caller, or nil for unauthenticated contexts such as
// the worker.
func GetUser(ctx context.Context) *UserContext {
	user, _ := ctx.Value(userKey{}).(*UserContext)
	return user
}

// GetUserID returns the caller id or "".
func GetUserID(ctx context.Context) string {
	return GetUser(ctx).id()
}

func (u *UserContext) id() string {
	if u == nil {
		return ""
	}
	return u.UserID
}
