package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/repository"
)

type authFixture struct {
	auth   *Authenticator
	tokens *TokenManager
	clock  *fakeClock
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	clock := newFakeClock()
	tokens := NewTokenManager("resolver-secret", testIssuer, 30*time.Minute, WithClock(clock.Now))
	repo := repository.NewEmployeeRepository(repository.NewMemoryStore())
	require.NoError(t, repo.Create(context.Background(), &domain.Employee{
		ID:       "emp-1",
		Username: "ada",
		Role:     domain.RoleManager,
	}))
	return authFixture{auth: NewAuthenticator(tokens, repo), tokens: tokens, clock: clock}
}

func (f authFixture) header(t *testing.T, username string) string {
	t.Helper()
	issued, err := f.tokens.GenerateUserToken(username)
	require.NoError(t, err)
	return "Bearer " + issued.Value
}

func TestResolve_Authenticated(t *testing.T) {
	f := newAuthFixture(t)

	res := f.auth.Resolve(context.Background(), f.header(t, "ada"))
	require.Equal(t, Authenticated, res.Kind)
	assert.Equal(t, "emp-1", res.Identity.ID)
	assert.Equal(t, domain.RoleManager, res.Identity.Role)
	assert.Equal(t, res.Identity, res.Optional())

	id, err := res.Required()
	require.NoError(t, err)
	assert.Equal(t, "ada", id.Username)
}

func TestResolve_LowercaseScheme(t *testing.T) {
	f := newAuthFixture(t)
	issued, err := f.tokens.GenerateUserToken("ada")
	require.NoError(t, err)

	res := f.auth.Resolve(context.Background(), "bearer "+issued.Value)
	assert.Equal(t, Authenticated, res.Kind)
}

func TestResolve_Failures(t *testing.T) {
	f := newAuthFixture(t)
	service, err := f.tokens.GenerateServiceToken("analytics-service")
	require.NoError(t, err)
	foreign := NewTokenManager("other-secret", testIssuer, time.Minute)
	forged, err := foreign.GenerateUserToken("ada")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		kind   ResolutionKind
		reason error
	}{
		{"absent", "", Anonymous, ErrMissingAuth},
		{"whitespace", "   ", Anonymous, ErrMissingAuth},
		{"basic scheme", "Basic YWRhOnB3", Rejected, ErrMalformedAuth},
		{"no token", "Bearer", Rejected, ErrMalformedAuth},
		{"extra parts", "Bearer a b", Rejected, ErrMalformedAuth},
		{"garbage token", "Bearer not.a.jwt", Rejected, ErrTokenMalformed},
		{"wrong secret", "Bearer " + forged.Value, Rejected, ErrTokenSignature},
		{"service token", "Bearer " + service.Value, Rejected, ErrServiceTokenForUser},
		{"unknown user", f.header(t, "ghost"), Rejected, ErrUnknownSubject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := f.auth.Resolve(context.Background(), tc.header)
			assert.Equal(t, tc.kind, res.Kind)
			assert.Nil(t, res.Optional())

			id, err := res.Required()
			assert.Nil(t, id)
			require.ErrorIs(t, err, tc.reason)
			assert.True(t, IsCredentialError(err))
		})
	}
}

func TestResolve_Expired(t *testing.T) {
	f := newAuthFixture(t)
	header := f.header(t, "ada")

	f.clock.Advance(31 * time.Minute)

	res := f.auth.Resolve(context.Background(), header)
	assert.Equal(t, Rejected, res.Kind)
	assert.Nil(t, res.Optional())
	_, err := res.Required()
	require.ErrorIs(t, err, ErrTokenExpired)
}

type brokenEmployees struct {
	repository.EmployeeRepository
	err error
}

func (b brokenEmployees) GetByUsername(context.Context, string) (*domain.Employee, error) {
	return nil, b.err
}

func TestResolve_StoreFailureIsNotCredentialError(t *testing.T) {
	f := newAuthFixture(t)
	boom := errors.New("connection reset")
	resolver := NewAuthenticator(f.tokens, brokenEmployees{err: boom})

	res := resolver.Resolve(context.Background(), f.header(t, "ada"))
	assert.Equal(t, Rejected, res.Kind)
	assert.Nil(t, res.Optional())
	_, err := res.Required()
	require.ErrorIs(t, err, boom)
	assert.False(t, IsCredentialError(err))
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("  Bearer abc.def.ghi ")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = BearerToken("Token abc")
	assert.False(t, ok)
}
