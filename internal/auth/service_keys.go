package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/employee-onboarding/internal/domain"
)

var (
	// ErrMissingAPIKey means no X-Service-API-Key was presented.
	ErrMissingAPIKey = errors.New("missing service api key")
	// ErrInvalidAPIKey means the key matched no registered service.
	ErrInvalidAPIKey = errors.New("invalid api key")
	// ErrNotServiceToken means a valid token lacked the service flag.
	ErrNotServiceToken = errors.New("not a service token")
)

// RateLimitError is returned when a (service, origin) pair exhausted its window.
type RateLimitError struct {
	Service    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Service, e.RetryAfter)
}

type serviceKey struct {
	name   string
	digest [sha256.Size]byte
}

// ServiceAuthenticator exchanges static service API keys for short-lived service tokens.
type ServiceAuthenticator struct {
	keys    []serviceKey
	limiter *RateLimiter
	tokens  *TokenManager
}

// NewServiceAuthenticator builds the exchange. Services with empty keys are never matched.
// The registry is copied; later changes to apiKeys have no effect.
func NewServiceAuthenticator(apiKeys map[string]string, limiter *RateLimiter, tokens *TokenManager) *ServiceAuthenticator {
	names := make([]string, 0, len(apiKeys))
	for name, key := range apiKeys {
		if name == "" || key == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	keys := make([]serviceKey, 0, len(names))
	for _, name := range names {
		keys = append(keys, serviceKey{name: name, digest: sha256.Sum256([]byte(apiKeys[name]))})
	}
	return &ServiceAuthenticator{keys: keys, limiter: limiter, tokens: tokens}
}

// Services lists the registered service names.
func (a *ServiceAuthenticator) Services() []string {
	out := make([]string, len(a.keys))
	for i, k := range a.keys {
		out[i] = k.name
	}
	return out
}

// Match returns the service owning apiKey. Every registered key is compared,
// over fixed-size digests, so timing depends on neither match position nor key length.
func (a *ServiceAuthenticator) Match(apiKey string) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}
	presented := sha256.Sum256([]byte(apiKey))
	matched := ""
	for _, k := range a.keys {
		if subtle.ConstantTimeCompare(presented[:], k.digest[:]) == 1 && matched == "" {
			matched = k.name
		}
	}
	if matched == "" {
		return "", ErrInvalidAPIKey
	}
	return matched, nil
}

// Authenticate matches apiKey and charges one request to (service, origin).
func (a *ServiceAuthenticator) Authenticate(ctx context.Context, apiKey, origin string) (string, error) {
	service, err := a.Match(apiKey)
	if err != nil {
		return "", err
	}
	if a.limiter == nil {
		return service, nil
	}

	decision, err := a.limiter.Allow(ctx, rateLimitKey(service, origin))
	if err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	if !decision.Allowed {
		return "", &RateLimitError{Service: service, RetryAfter: decision.RetryAfter}
	}
	return service, nil
}

// IssueToken mints a service token for an already authenticated service.
func (a *ServiceAuthenticator) IssueToken(service string) (domain.IssuedToken, error) {
	return a.tokens.GenerateServiceToken(service)
}

// VerifyToken accepts only tokens carrying service=true.
func (a *ServiceAuthenticator) VerifyToken(token string) (*Claims, error) {
	claims, err := a.tokens.ParseToken(token)
	if err != nil {
		return nil, err
	}
	if !claims.Service {
		return nil, ErrNotServiceToken
	}
	return claims, nil
}

func rateLimitKey(service, origin string) string {
	if origin == "" {
		origin = "unknown"
	}
	return service + "|" + origin
}
