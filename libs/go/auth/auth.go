package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds signer parameters shared by the API and its workers.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims represents the payload extracted from a JWT.
type Claims struct {
	Subject   string
	SessionID string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Issue signs a token for the subject bound to one session.
func Issue(cfg Config, subject, sessionID, email string, now time.Time) (string, time.Time, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", time.Time{}, errors.New("auth: signing secret is empty")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expires := now.Add(ttl).UTC()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":   cfg.Issuer,
		"sub":   subject,
		"sid":   sessionID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
	})
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates a JWT and returns normalized claims.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	sessionID, _ := claims["sid"].(string)
	if subject == "" || sessionID == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}
	out := &Claims{
		Subject:   subject,
		SessionID: sessionID,
		Email:     email,
		ExpiresAt: exp.Time,
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	return out, nil
}
