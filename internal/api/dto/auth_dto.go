package dto

import "time"

// LoginForm is the OAuth2 password form posted to /token.
type LoginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// TokenResponse standard response for user login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ServiceTokenResponse is returned by the service key exchange.
type ServiceTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Service     string `json:"service"`
}

// ServiceVerifyResponse reports a valid service token.
type ServiceVerifyResponse struct {
	Valid     bool      `json:"valid"`
	Service   string    `json:"service"`
	ExpiresAt time.Time `json:"expires_at"`
}
