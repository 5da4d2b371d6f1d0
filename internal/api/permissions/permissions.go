// Package permissions holds the pure access predicates. Each rule is a
// function over the caller's role, identity and the request method, so
// endpoints compose them instead of encoding access in a type hierarchy.
package permissions

import (
	"net/http"

	"titlehub/internal/api/models"
)

// Caller is the authenticated identity extracted from the bearer token.
// A nil *Caller means the request is anonymous.
type Caller struct {
	UserID    string
	Username  string
	Role      string
	Superuser bool
}

func (c *Caller) IsAdmin() bool {
	return c != nil && (c.Superuser || c.Role == models.RoleAdmin)
}

func (c *Caller) IsModerator() bool {
	return c != nil && c.Role == models.RoleModerator
}

// IsSafeMethod reports whether the method is read-only.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// SelfOnly: the caller must be authenticated and the target must be the
// caller's own record.
func SelfOnly(c *Caller, ownerID string) bool {
	return c != nil && c.UserID == ownerID
}

// AdminOnly: every method requires admin (or superuser); anonymous
// callers always fail.
func AdminOnly(c *Caller) bool {
	return c.IsAdmin()
}

// AdminOrReadOnly: safe methods pass for anyone, unsafe methods require
// admin.
func AdminOrReadOnly(c *Caller, method string) bool {
	return IsSafeMethod(method) || c.IsAdmin()
}

// AuthorModeratorAdminOrReadOnly: safe methods pass; unsafe methods pass
// for the resource's author, a moderator or an admin. Evaluated after the
// object is fetched, because it needs the author.
func AuthorModeratorAdminOrReadOnly(c *Caller, method, authorID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if c == nil {
		return false
	}
	return c.UserID == authorID || c.IsModerator() || c.IsAdmin()
}
