package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is the data minted into an admin access token.
type AccessTokenPayload struct {
	AdminID  uuid.UUID
	Username string
	JTI      string
}

// AccessTokenClaims is the JWT claim set carried by admin access tokens.
type AccessTokenClaims struct {
	AdminID  uuid.UUID `json:"admin_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}
