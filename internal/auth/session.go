package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the admin session cookie set on login.
const SessionCookieName = "vouchers_session"

var ErrInvalidSession = errors.New("invalid session token")

// IssueSessionToken mints a signed admin session token. The only
// principal in this system is the single admin password, so the token
// carries nothing but the admin flag and an expiry.
func IssueSessionToken(secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"admin": true,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifySessionToken checks the signature, expiry and admin claim.
func VerifySessionToken(secret, tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return ErrInvalidSession
	}
	if admin, ok := claims["admin"].(bool); !ok || !admin {
		return ErrInvalidSession
	}
	return nil
}
