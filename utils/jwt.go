package utils

import (
	"errors"
	"time"

	"github.com/tgiokas/BellNotifications/config"

	"github.com/golang-jwt/jwt/v5"
)

// StreamTokenPurpose is the purpose claim required on stream tokens.
// A primary bearer token must never be accepted at the stream endpoint.
const StreamTokenPurpose = "stream"

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token does not contain a valid 'sub' claim")
	ErrWrongPurpose   = errors.New("token missing or invalid purpose claim")
)

// GenerateToken creates a signed JWT with the given subject and optional
// tenant, expiring after the specified duration. Used for the primary
// bearer credential.
func GenerateToken(subject, tenantID string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(duration).Unix(),
	}
	if tenantID != "" {
		claims["tenant_id"] = tenantID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// GenerateStreamToken mints a short-lived token scoped to the SSE stream
// endpoint. It carries a purpose claim so a leaked stream URL cannot be
// replayed against the rest of the API.
func GenerateStreamToken(subject, tenantID string, duration time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(duration)
	claims := jwt.MapClaims{
		"sub":     subject,
		"user_id": subject,
		"purpose": StreamTokenPurpose,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}
	if tenantID != "" {
		claims["tenant_id"] = tenantID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.StreamTokenKey()))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken parses and validates a primary bearer token and returns
// the subject and optional tenant.
func ValidateToken(tokenString string) (subject string, tenantID string, err error) {
	return parseWithKey(tokenString, []byte(config.AppConfig.JWTSecret), "")
}

// ValidateStreamToken parses a stream token and enforces its purpose claim.
func ValidateStreamToken(tokenString string) (subject string, tenantID string, err error) {
	return parseWithKey(tokenString, []byte(config.StreamTokenKey()), StreamTokenPurpose)
}

func parseWithKey(tokenString string, key []byte, wantPurpose string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}

	if wantPurpose != "" {
		purpose, _ := claims["purpose"].(string)
		if purpose != wantPurpose {
			return "", "", ErrWrongPurpose
		}
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub, _ = claims["user_id"].(string)
	}
	if sub == "" {
		return "", "", ErrMissingSubject
	}

	tenantID, _ := claims["tenant_id"].(string)
	return sub, tenantID, nil
}
