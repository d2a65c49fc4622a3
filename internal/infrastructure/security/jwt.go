package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Session is the identity carried by a session token.
type Session struct {
	UserID    string
	Mail      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// GenerateSessionToken signs an HS256 token for the user valid for lifetime
// from now.
func GenerateSessionToken(userID, mail, jwtSecret string, now time.Time, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"mail": mail,
		"iat":  now.UTC().Unix(),
		"exp":  now.UTC().Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// ParseSessionToken validates tokenString and extracts the session.
func ParseSessionToken(tokenString, jwtSecret string) (*Session, error) {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}
	return GetSessionFromClaims(claims)
}

// GetSessionFromClaims extracts a session from JWT claims
func GetSessionFromClaims(claims jwt.MapClaims) (*Session, error) {
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	mail, _ := claims["mail"].(string)

	session := &Session{UserID: userID, Mail: mail}
	if iat, ok := claims["iat"].(float64); ok {
		session.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		session.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return session, nil
}
