package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainuser "campustrades/internal/domain/user"
	"campustrades/internal/infra/security"
	"campustrades/internal/infra/storage/memory"
)

func newService(domains ...string) *Service {
	return &Service{
		Users:         memory.NewUserRepository(),
		Sessions:      memory.NewSessionStore(),
		Profiles:      memory.NewProfileRepository(),
		Passwords:     security.BcryptHasher{},
		Tokens:        security.RandomTokenGenerator{},
		CampusDomains: domains,
	}
}

func TestRegisterEnforcesCampusDomains(t *testing.T) {
	svc := newService("campus.edu")
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{
		Email:    "Jordan@Campus.EDU",
		Name:     "Jordan",
		Password: "correct horse",
		Campus:   "North",
	})
	require.NoError(t, err)
	assert.Equal(t, "jordan@campus.edu", result.User.Email)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Register(ctx, RegisterParams{
		Email:    "jordan@gmail.com",
		Name:     "Jordan",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, domainuser.ErrEmailNotCampus)
}

func TestRegisterOpenWhenNoDomainsConfigured(t *testing.T) {
	svc := newService()

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "anyone@example.com",
		Name:     "Anyone",
		Password: "long enough",
	})
	assert.NoError(t, err)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	svc := newService()

	_, err := svc.Register(context.Background(), RegisterParams{
		Email:    "short@example.com",
		Name:     "Shorty",
		Password: "tiny",
	})
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestLoginAndResolveToken(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterParams{
		Email:    "casey@example.com",
		Name:     "Casey",
		Password: "correct horse",
	})
	require.NoError(t, err)

	result, err := svc.Login(ctx, LoginParams{Email: "casey@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	resolved, err := svc.ResolveToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, "casey@example.com", resolved.User.Email)

	_, err = svc.Login(ctx, LoginParams{Email: "casey@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterParams{
		Email:    "casey@example.com",
		Name:     "Casey",
		Password: "correct horse",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))

	_, err = svc.ResolveToken(ctx, result.Token)
	assert.Error(t, err)
}
