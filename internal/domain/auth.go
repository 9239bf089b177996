package domain

import "time"

// TokenKind differentiates user tokens from service tokens.
type TokenKind string

const (
	TokenKindUser    TokenKind = "user"
	TokenKindService TokenKind = "service"
)

// IssuedToken is a signed bearer token plus the metadata it was minted with.
type IssuedToken struct {
	Value     string
	Kind      TokenKind
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiresIn returns the lifetime in whole seconds.
func (t IssuedToken) ExpiresIn() int64 {
	return int64(t.ExpiresAt.Sub(t.IssuedAt) / time.Second)
}
