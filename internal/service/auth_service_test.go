package service

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/events"
)

func newAuthService(t *testing.T, f fixture, max int) *AuthService {
	t.Helper()
	store := auth.NewMemoryRateLimitStore(nil)
	t.Cleanup(func() { _ = store.Close() })
	services := auth.NewServiceAuthenticator(map[string]string{
		"analytics-service": "analytics-key",
		"chatbot-agent":     "chatbot-key",
	}, auth.NewRateLimiter(store, max, time.Minute), f.tokens)

	return NewAuthService(AuthDependencies{
		Employees:  f.repo,
		Hasher:     f.hasher,
		Tokens:     f.tokens,
		Services:   services,
		Dispatcher: f.dispatcher,
	})
}

func TestAuthService_Login(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ada", domain.RoleEmployee)
	svc := newAuthService(t, f, 10)
	ctx := context.Background()

	token, err := svc.Login(ctx, "ada", "Password123!")
	require.NoError(t, err)
	assert.Equal(t, domain.TokenKindUser, token.Kind)

	claims, err := f.tokens.ParseToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, "ada", claims.Subject)
	assert.False(t, claims.Service)
}

func TestAuthService_LoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ada", domain.RoleEmployee)
	svc := newAuthService(t, f, 10)
	ctx := context.Background()

	_, wrongPassword := svc.Login(ctx, "ada", "nope")
	_, unknownUser := svc.Login(ctx, "nobody", "Password123!")

	a := requireStatus(t, wrongPassword, http.StatusUnauthorized)
	b := requireStatus(t, unknownUser, http.StatusUnauthorized)
	assert.Equal(t, "Incorrect username or password", a.Message)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, "Bearer", b.Headers["WWW-Authenticate"])
}

func TestAuthService_PlaceholderHashFallback(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f, 10)

	original := placeholderPassword
	placeholderPassword = strings.Repeat("x", 73)
	t.Cleanup(func() { placeholderPassword = original })

	assert.Equal(t, fallbackPlaceholderHash, svc.placeholderHash())

	cost, err := bcrypt.Cost([]byte(fallbackPlaceholderHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
	assert.True(t, f.hasher.Verify("allmine", fallbackPlaceholderHash))

	_, err = svc.Login(context.Background(), "nobody", "Password123!")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestAuthService_PlaceholderHashUsesHasher(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f, 10)

	hash := svc.placeholderHash()
	assert.NotEqual(t, fallbackPlaceholderHash, hash)
	assert.True(t, f.hasher.Verify(placeholderPassword, hash))
}

func TestAuthService_IssueServiceToken(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f, 2)
	ctx := context.Background()

	token, err := svc.IssueServiceToken(ctx, "chatbot-key", "10.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "chatbot-agent", token.Subject)
	assert.EqualValues(t, 3600, token.ExpiresIn())

	last := (*f.published)[len(*f.published)-1]
	assert.Equal(t, events.EventServiceTokenIssued, last.Type)
	assert.Equal(t, "chatbot-agent", last.Actor.Service)

	_, err = svc.IssueServiceToken(ctx, "", "10.1.1.1")
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = svc.IssueServiceToken(ctx, "wrong", "10.1.1.1")
	requireStatus(t, err, http.StatusForbidden)

	_, err = svc.IssueServiceToken(ctx, "chatbot-key", "10.1.1.1")
	require.NoError(t, err)
	_, err = svc.IssueServiceToken(ctx, "chatbot-key", "10.1.1.1")
	de := requireStatus(t, err, http.StatusTooManyRequests)
	assert.Equal(t, "60", de.Headers["Retry-After"])
}

func TestAuthService_VerifyServiceToken(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(t, f, 10)
	ctx := context.Background()

	token, err := svc.IssueServiceToken(ctx, "analytics-key", "o")
	require.NoError(t, err)

	claims, err := svc.VerifyServiceToken(ctx, "analytics-key", "o", "Bearer "+token.Value)
	require.NoError(t, err)
	assert.Equal(t, "analytics-service", claims.Subject)

	_, err = svc.VerifyServiceToken(ctx, "chatbot-key", "o", "Bearer "+token.Value)
	requireStatus(t, err, http.StatusUnauthorized)

	user, err := f.tokens.GenerateUserToken("ada")
	require.NoError(t, err)
	_, err = svc.VerifyServiceToken(ctx, "analytics-key", "o", "Bearer "+user.Value)
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = svc.VerifyServiceToken(ctx, "analytics-key", "o", "")
	requireStatus(t, err, http.StatusUnauthorized)
}
