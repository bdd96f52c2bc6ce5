package jwt

import "github.com/golang-jwt/jwt"

// Claims defines the JWT claims carried by a connection token.
// Beyond the standard validity fields, the token only needs to name the
// account it was issued for; everything else about the session (conversation
// binding, identity view) is resolved server-side at connect time.
type Claims struct {
	jwt.StandardClaims

	// UserID is the subject account the token was issued for.
	UserID int64 `json:"user_id"`
}
