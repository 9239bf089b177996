package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

func newMiddlewareApp(t *testing.T) (*fiber.App, authFixture) {
	t.Helper()
	f := newAuthFixture(t)
	services := NewServiceAuthenticator(map[string]string{"analytics-service": "k"}, nil, f.tokens)
	mw := NewMiddleware(f.auth, services)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			for k, v := range de.Headers {
				c.Set(k, v)
			}
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})
	caller := func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Caller())
	}
	app.Get("/optional", mw.OptionalUser, caller)
	app.Get("/user", mw.RequireUser, caller)
	app.Get("/caller", mw.RequireCaller, caller)
	return app, f
}

func doGet(t *testing.T, app *fiber.App, path, authHeader string) (int, string, http.Header) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set(fiber.HeaderAuthorization, authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := make([]byte, 512)
	n, _ := resp.Body.Read(buf)
	return resp.StatusCode, string(buf[:n]), resp.Header
}

func TestMiddleware_OptionalUser(t *testing.T) {
	app, f := newMiddlewareApp(t)

	status, body, _ := doGet(t, app, "/optional", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, body, _ = doGet(t, app, "/optional", "Bearer garbage")
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body)

	status, body, _ = doGet(t, app, "/optional", f.header(t, "ada"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user:ada", body)
}

func TestMiddleware_RequireUser(t *testing.T) {
	app, f := newMiddlewareApp(t)

	status, body, headers := doGet(t, app, "/user", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgNotAuthenticated, body)
	assert.Equal(t, "Bearer", headers.Get(fiber.HeaderWWWAuthenticate))

	status, body, _ = doGet(t, app, "/user", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, msgInvalidCredentials, body)

	service, err := f.tokens.GenerateServiceToken("analytics-service")
	require.NoError(t, err)
	status, _, _ = doGet(t, app, "/user", "Bearer "+service.Value)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body, _ = doGet(t, app, "/user", f.header(t, "ada"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user:ada", body)
}

func TestMiddleware_RequireCaller(t *testing.T) {
	app, f := newMiddlewareApp(t)

	service, err := f.tokens.GenerateServiceToken("analytics-service")
	require.NoError(t, err)
	status, body, _ := doGet(t, app, "/caller", "Bearer "+service.Value)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "service:analytics-service", body)

	status, body, _ = doGet(t, app, "/caller", f.header(t, "ada"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user:ada", body)

	status, _, _ = doGet(t, app, "/caller", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHTTPError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrMissingAPIKey, http.StatusUnauthorized},
		{ErrInvalidAPIKey, http.StatusForbidden},
		{ErrTokenExpired, http.StatusUnauthorized},
		{&RateLimitError{Service: "s", RetryAfter: time.Minute}, http.StatusTooManyRequests},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		de := apperrors.ToDomainError(HTTPError(tc.err))
		assert.Equal(t, tc.status, de.HTTPStatus, tc.err.Error())
	}

	de := apperrors.ToDomainError(HTTPError(&RateLimitError{RetryAfter: time.Minute}))
	assert.Equal(t, "60", de.Headers["Retry-After"])
	assert.Nil(t, HTTPError(nil))
}
