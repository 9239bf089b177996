package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/events"
	"github.com/spec-kit/employee-onboarding/internal/repository"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

const msgIncorrectLogin = "Incorrect username or password"

// ErrTokenServiceMismatch means a valid service token belongs to a different service than the key.
var ErrTokenServiceMismatch = errors.New("service token does not match api key")

// AuthService coordinates password login and the service key exchange.
type AuthService struct {
	employees  repository.EmployeeRepository
	hasher     *auth.PasswordHasher
	tokens     *auth.TokenManager
	services   *auth.ServiceAuthenticator
	dispatcher events.Dispatcher
	logger     *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	Employees  repository.EmployeeRepository
	Hasher     *auth.PasswordHasher
	Tokens     *auth.TokenManager
	Services   *auth.ServiceAuthenticator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		employees:  deps.Employees,
		hasher:     deps.Hasher,
		tokens:     deps.Tokens,
		services:   deps.Services,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Login checks username and password and issues a user token. Unknown users and
// wrong passwords produce the same error, and both pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, username, password string) (domain.IssuedToken, error) {
	employee, err := s.employees.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		s.hasher.Verify(password, s.placeholderHash())
		return domain.IssuedToken{}, apperrors.NewUnauthorized(msgIncorrectLogin)
	case err != nil:
		return domain.IssuedToken{}, apperrors.NewInternalError(err)
	}

	if !s.hasher.Verify(password, employee.PasswordHash) {
		return domain.IssuedToken{}, apperrors.NewUnauthorized(msgIncorrectLogin)
	}

	token, err := s.tokens.GenerateUserToken(employee.Username)
	if err != nil {
		return domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	return token, nil
}

// IssueServiceToken exchanges an API key for a service token, charging the
// (service, origin) rate limit.
func (s *AuthService) IssueServiceToken(ctx context.Context, apiKey, origin string) (domain.IssuedToken, error) {
	service, err := s.services.Authenticate(ctx, apiKey, origin)
	if err != nil {
		var limited *auth.RateLimitError
		if errors.As(err, &limited) {
			s.logger.Warn("service rate limited", zap.String("service", limited.Service), zap.String("origin", origin))
		}
		return domain.IssuedToken{}, auth.HTTPError(err)
	}

	token, err := s.services.IssueToken(service)
	if err != nil {
		return domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.New(events.EventServiceTokenIssued, service, events.Actor{Service: service},
		events.ServiceTokenIssuedPayload{Origin: origin, ExpiresAt: token.ExpiresAt}))
	return token, nil
}

// VerifyServiceToken checks that token is a live service token issued to the
// service owning apiKey.
func (s *AuthService) VerifyServiceToken(ctx context.Context, apiKey, origin, bearer string) (*auth.Claims, error) {
	service, err := s.services.Authenticate(ctx, apiKey, origin)
	if err != nil {
		return nil, auth.HTTPError(err)
	}

	raw, ok := auth.BearerToken(bearer)
	if !ok {
		return nil, invalidServiceToken(auth.ErrMalformedAuth)
	}
	claims, err := s.services.VerifyToken(raw)
	if err != nil {
		return nil, invalidServiceToken(err)
	}
	if claims.Subject != service {
		return nil, invalidServiceToken(ErrTokenServiceMismatch)
	}
	return claims, nil
}

func invalidServiceToken(cause error) error {
	return apperrors.ToDomainError(apperrors.NewUnauthorized("Invalid or expired service token")).WithCause(cause)
}

// placeholderPassword is hashed once and compared against on unknown usernames.
var placeholderPassword = "placeholder-password-for-timing"

// fallbackPlaceholderHash is a cost-10 bcrypt digest used when hashing the placeholder fails.
const fallbackPlaceholderHash = "$2a$10$XajjQvNhvvRt5GSeFk1xFeyqRrsxkhBkUiQeg0dt.wU1qD4aFDcga"

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash = fallbackPlaceholderHash
		hash, err := s.hasher.Hash(placeholderPassword)
		if err != nil {
			s.logger.Error("placeholder hash, using fallback digest", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
