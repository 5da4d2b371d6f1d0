package permissions

import (
	"net/http"
	"testing"

	"titlehub/internal/api/models"

	"github.com/stretchr/testify/assert"
)

func TestSelfOnly(t *testing.T) {
	me := &Caller{UserID: "u1", Role: models.RoleUser}

	assert.True(t, SelfOnly(me, "u1"))
	assert.False(t, SelfOnly(me, "u2"))
	assert.False(t, SelfOnly(nil, "u1"))
}

func TestAdminOnly(t *testing.T) {
	assert.False(t, AdminOnly(nil))
	assert.False(t, AdminOnly(&Caller{Role: models.RoleUser}))
	assert.False(t, AdminOnly(&Caller{Role: models.RoleModerator}))
	assert.True(t, AdminOnly(&Caller{Role: models.RoleAdmin}))
	// a superuser passes regardless of role
	assert.True(t, AdminOnly(&Caller{Role: models.RoleUser, Superuser: true}))
}

func TestAdminOrReadOnly(t *testing.T) {
	user := &Caller{Role: models.RoleUser}
	admin := &Caller{Role: models.RoleAdmin}

	assert.True(t, AdminOrReadOnly(nil, http.MethodGet))
	assert.True(t, AdminOrReadOnly(user, http.MethodGet))
	assert.False(t, AdminOrReadOnly(nil, http.MethodPost))
	assert.False(t, AdminOrReadOnly(user, http.MethodDelete))
	assert.True(t, AdminOrReadOnly(admin, http.MethodPost))
}

func TestAuthorModeratorAdminOrReadOnly(t *testing.T) {
	author := &Caller{UserID: "author", Role: models.RoleUser}
	other := &Caller{UserID: "other", Role: models.RoleUser}
	moderator := &Caller{UserID: "mod", Role: models.RoleModerator}
	admin := &Caller{UserID: "adm", Role: models.RoleAdmin}

	// reads pass for everyone, including anonymous
	assert.True(t, AuthorModeratorAdminOrReadOnly(nil, http.MethodGet, "author"))
	assert.True(t, AuthorModeratorAdminOrReadOnly(other, http.MethodGet, "author"))

	// writes: author, moderator and admin pass, another plain user does not
	assert.True(t, AuthorModeratorAdminOrReadOnly(author, http.MethodDelete, "author"))
	assert.True(t, AuthorModeratorAdminOrReadOnly(moderator, http.MethodDelete, "author"))
	assert.True(t, AuthorModeratorAdminOrReadOnly(admin, http.MethodPatch, "author"))
	assert.False(t, AuthorModeratorAdminOrReadOnly(other, http.MethodDelete, "author"))
	assert.False(t, AuthorModeratorAdminOrReadOnly(nil, http.MethodDelete, "author"))
}

func TestIsSafeMethod(t *testing.T) {
	assert.True(t, IsSafeMethod(http.MethodGet))
	assert.True(t, IsSafeMethod(http.MethodHead))
	assert.True(t, IsSafeMethod(http.MethodOptions))
	assert.False(t, IsSafeMethod(http.MethodPost))
	assert.False(t, IsSafeMethod(http.MethodPut))
	assert.False(t, IsSafeMethod(http.MethodPatch))
	assert.False(t, IsSafeMethod(http.MethodDelete))
}
