package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/employee-onboarding/internal/domain"
)

var (
	// ErrTokenExpired means the signature was valid but exp has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenSignature means the token was not signed with our key and algorithm.
	ErrTokenSignature = errors.New("invalid token signature")
	// ErrTokenMalformed covers every other decode failure.
	ErrTokenMalformed = errors.New("malformed token")
)

// Claims describes the JWT payload for both user and service tokens.
// Service is the only field that tells the two kinds apart.
type Claims struct {
	Service bool `json:"service,omitempty"`
	jwt.RegisteredClaims
}

// Kind returns which verifier may accept the claims.
func (c *Claims) Kind() domain.TokenKind {
	if c.Service {
		return domain.TokenKindService
	}
	return domain.TokenKindUser
}

// TokenManager handles issuing and validating HS256 JWT tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	ttl        time.Duration
	serviceTTL time.Duration
	now        func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now, used by tests to move past expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		tm.now = now
	}
}

// WithServiceTTL overrides the service token lifetime.
func WithServiceTTL(ttl time.Duration) TokenOption {
	return func(tm *TokenManager) {
		if ttl > 0 {
			tm.serviceTTL = ttl
		}
	}
}

// NewTokenManager builds a new manager. A non-positive ttl falls back to 30 minutes.
func NewTokenManager(secret, issuer string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	tm := &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		serviceTTL: time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// GenerateUserToken signs a user token whose subject is the username.
func (tm *TokenManager) GenerateUserToken(username string) (domain.IssuedToken, error) {
	return tm.generate(username, false, tm.ttl)
}

// GenerateServiceToken signs a service token carrying service=true.
func (tm *TokenManager) GenerateServiceToken(serviceName string) (domain.IssuedToken, error) {
	return tm.generate(serviceName, true, tm.serviceTTL)
}

func (tm *TokenManager) generate(subject string, service bool, ttl time.Duration) (domain.IssuedToken, error) {
	issuedAt := tm.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)
	claims := &Claims{
		Service: service,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := tm.Encode(claims)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{
		Value:     signed,
		Kind:      claims.Kind(),
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Encode signs arbitrary claims. exp must be set by the caller.
func (tm *TokenManager) Encode(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// ParseToken verifies the signature, then exp, then the issuer, and returns the claims.
// Errors are one of ErrTokenExpired, ErrTokenSignature or ErrTokenMalformed.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tm.issuer),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenMalformed
	}
}
