package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/repository"
)

var (
	// ErrMissingAuth means no Authorization header was sent.
	ErrMissingAuth = errors.New("not authenticated")
	// ErrMalformedAuth means the header was not "Bearer <token>".
	ErrMalformedAuth = errors.New("malformed authorization header")
	// ErrUnknownSubject means the token named a user that no longer exists.
	ErrUnknownSubject = errors.New("unknown token subject")
	// ErrServiceTokenForUser means a service token was presented where a user is required.
	ErrServiceTokenForUser = errors.New("service token not accepted for user authentication")
)

// ResolutionKind tags the outcome of resolving a request's credentials.
type ResolutionKind int

const (
	Anonymous ResolutionKind = iota
	Authenticated
	Rejected
)

func (k ResolutionKind) String() string {
	switch k {
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Resolution is the tagged result of Resolve. Identity is set only when
// Kind is Authenticated, Reason only when Kind is Rejected.
type Resolution struct {
	Kind     ResolutionKind
	Identity *domain.Identity
	Employee *domain.Employee
	Reason   error
}

// Optional collapses a rejection into anonymous access.
func (r Resolution) Optional() *domain.Identity {
	if r.Kind == Authenticated {
		return r.Identity
	}
	return nil
}

// Required returns the identity or the reason it is missing.
func (r Resolution) Required() (*domain.Identity, error) {
	switch r.Kind {
	case Authenticated:
		return r.Identity, nil
	case Anonymous:
		return nil, ErrMissingAuth
	}
	return nil, r.Reason
}

// Authenticator resolves user bearer tokens to employee identities.
type Authenticator struct {
	tokens    *TokenManager
	employees repository.EmployeeRepository
}

// NewAuthenticator builds the resolver.
func NewAuthenticator(tokens *TokenManager, employees repository.EmployeeRepository) *Authenticator {
	return &Authenticator{tokens: tokens, employees: employees}
}

// Resolve inspects an Authorization header value. It never panics and never
// returns an error directly; failures are reported through Resolution.Reason.
// A store failure during lookup is rejected with the wrapped store error.
func (a *Authenticator) Resolve(ctx context.Context, authHeader string) Resolution {
	if strings.TrimSpace(authHeader) == "" {
		return Resolution{Kind: Anonymous}
	}

	raw, ok := BearerToken(authHeader)
	if !ok {
		return reject(ErrMalformedAuth)
	}

	claims, err := a.tokens.ParseToken(raw)
	if err != nil {
		return reject(err)
	}
	if claims.Service {
		return reject(ErrServiceTokenForUser)
	}
	if claims.Subject == "" {
		return reject(ErrTokenMalformed)
	}

	employee, err := a.employees.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return reject(ErrUnknownSubject)
		}
		return reject(err)
	}

	identity := employee.Identity()
	identity.Extra = map[string]any{"iat": claims.IssuedAt, "exp": claims.ExpiresAt}
	return Resolution{Kind: Authenticated, Identity: identity, Employee: employee}
}

// BearerToken extracts the credential from "Bearer <token>". The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// IsCredentialError reports whether err is an authentication failure rather than an
// infrastructure fault.
func IsCredentialError(err error) bool {
	for _, target := range []error{
		ErrMissingAuth, ErrMalformedAuth, ErrUnknownSubject, ErrServiceTokenForUser,
		ErrTokenExpired, ErrTokenSignature, ErrTokenMalformed, ErrNotServiceToken,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func reject(reason error) Resolution {
	return Resolution{Kind: Rejected, Reason: reason}
}
