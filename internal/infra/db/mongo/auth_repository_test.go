package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "campustrades/internal/domain/auth"
	domainuser "campustrades/internal/domain/user"
)

func TestUserDocumentNormalizesEmail(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	doc := newUserDocument(&domainuser.User{
		ID:           "u1",
		Email:        "  Jordan@Campus.EDU ",
		Name:         "Jordan",
		PasswordHash: "hash",
		Roles:        []domainuser.Role{domainuser.RoleMember},
		CreatedAt:    created,
		UpdatedAt:    created,
	})
	assert.Equal(t, "jordan@campus.edu", doc.Email)

	user := doc.toAggregate()
	assert.Equal(t, domainuser.ID("u1"), user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, []domainuser.Role{domainuser.RoleMember}, user.Roles)
	assert.Equal(t, created, user.CreatedAt)
}

func TestSessionDocumentKeepsExpiry(t *testing.T) {
	expires := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	doc := newSessionDocument(&domainauth.Session{
		Token:     "tok",
		UserID:    "u1",
		Roles:     []domainuser.Role{domainuser.RoleMember},
		CreatedAt: expires.Add(-time.Hour),
		ExpiresAt: expires,
	})
	assert.Equal(t, "tok", doc.ID)
	assert.Equal(t, "u1", doc.UserID)

	session := doc.toAggregate()
	assert.Equal(t, domainauth.Token("tok"), session.Token)
	assert.Equal(t, expires, session.ExpiresAt)
}
