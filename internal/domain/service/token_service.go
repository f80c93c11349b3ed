package service

import "github.com/golang-jwt/jwt/v5"

// TokenUser is the identity carried inside a token.
type TokenUser struct {
	ID string `json:"id"`
}

// Claims is the signed payload: {"user":{"id":"..."}} plus optional registered claims.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenService issues signed identity assertions. Verification belongs to consumers
// of the token and is not part of this interface.
type TokenService interface {
	// Issue creates a signed token binding userID.
	Issue(userID string) (string, error)
}
