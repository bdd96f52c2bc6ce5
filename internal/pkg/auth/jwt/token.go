/*
Package jwt implements the signed connection tokens used to authenticate
websocket handshakes.

Tokens are HS256-signed and carry the subject user id. Parsing distinguishes
an expired token from every other validation failure so callers can close the
connection with the matching close code.
*/
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// ConnectionTokenExpiration is the validity window of a connection token.
	ConnectionTokenExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "dmchat"
)

var (
	// ErrTokenExpired reports a structurally valid token whose expiry has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid reports any other validation failure: bad signature,
	// malformed claims, or a missing subject.
	ErrTokenInvalid = errors.New("token is invalid")
)

// GenerateToken creates and signs a new connection token for the given user id.
func GenerateToken(userID int64, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(duration).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    TokenIssuer,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(secretKey))
}

// ParseToken validates the token string against the secret and returns its
// claims. It returns ErrTokenExpired when the only problem is expiry, and
// ErrTokenInvalid for every other failure.
func ParseToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
