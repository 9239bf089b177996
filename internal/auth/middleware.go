package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-onboarding/internal/domain"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

const principalKey = "auth_principal"

const (
	msgNotAuthenticated   = "Not authenticated"
	msgInvalidCredentials = "Could not validate credentials"
	msgInvalidAPIKey      = "Invalid API key"
	msgMissingAPIKey      = "Missing service API key"
	msgRateLimited        = "Rate limit exceeded. Try again later."
)

// Principal represents the authenticated caller: a user, a service, or neither.
type Principal struct {
	Identity *domain.Identity
	Employee *domain.Employee
	Service  *domain.ServicePrincipal
}

// Caller names the principal for audit context.
func (p *Principal) Caller() string {
	switch {
	case p == nil:
		return ""
	case p.Service != nil:
		return "service:" + p.Service.Name
	case p.Identity != nil:
		return "user:" + p.Identity.Username
	}
	return ""
}

// Middleware turns bearer tokens into principals stored on the fiber context.
type Middleware struct {
	authenticator *Authenticator
	services      *ServiceAuthenticator
}

// NewMiddleware constructs middleware.
func NewMiddleware(authenticator *Authenticator, services *ServiceAuthenticator) *Middleware {
	return &Middleware{authenticator: authenticator, services: services}
}

// OptionalUser recognises a logged-in caller but lets anonymous and
// badly authenticated requests through as anonymous.
func (m *Middleware) OptionalUser(c *fiber.Ctx) error {
	res := m.authenticator.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if identity := res.Optional(); identity != nil {
		c.Locals(principalKey, &Principal{Identity: identity, Employee: res.Employee})
	}
	return c.Next()
}

// RequireUser rejects requests without a valid user token.
func (m *Middleware) RequireUser(c *fiber.Ctx) error {
	res := m.authenticator.Resolve(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	identity, err := res.Required()
	if err != nil {
		return HTTPError(err)
	}
	c.Locals(principalKey, &Principal{Identity: identity, Employee: res.Employee})
	return c.Next()
}

// RequireCaller accepts either a user token or a service token.
func (m *Middleware) RequireCaller(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if raw, ok := BearerToken(header); ok && m.services != nil {
		if claims, err := m.services.VerifyToken(raw); err == nil {
			c.Locals(principalKey, &Principal{Service: &domain.ServicePrincipal{Name: claims.Subject}})
			return c.Next()
		}
	}
	return m.RequireUser(c)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// IdentityFromContext returns the user identity, or nil for anonymous and service callers.
func IdentityFromContext(c *fiber.Ctx) *domain.Identity {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return principal.Identity
}

// HTTPError maps authentication failures onto client responses.
// Anything that is not a credential problem becomes a generic 500.
func HTTPError(err error) error {
	var limited *RateLimitError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &limited):
		return apperrors.NewRateLimited(msgRateLimited, limited.RetryAfter)
	case errors.Is(err, ErrMissingAPIKey):
		return apperrors.NewUnauthorized(msgMissingAPIKey)
	case errors.Is(err, ErrInvalidAPIKey):
		return apperrors.NewForbidden(msgInvalidAPIKey)
	case errors.Is(err, ErrMissingAuth), errors.Is(err, ErrMalformedAuth):
		return apperrors.NewUnauthorized(msgNotAuthenticated)
	case IsCredentialError(err):
		return apperrors.NewUnauthorized(msgInvalidCredentials)
	}
	return apperrors.NewInternalError(err)
}
