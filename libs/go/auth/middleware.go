package auth

import (
	"context"
	"net/http"
	"strings"
)

// Skipper allows callers to bypass authentication for specific requests.
type Skipper func(r *http.Request) bool

// Verifier runs after the token parses. It may enrich the context or reject
// the request, for example when the session behind the token has ended.
type Verifier func(ctx context.Context, claims *Claims) (context.Context, error)

// ErrorWriter renders an authentication failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	Config   Config
	Skipper  Skipper
	Verifier Verifier
	OnError  ErrorWriter
}

// NewMiddleware constructs a middleware with optional skipper.
func NewMiddleware(cfg Config, skipper Skipper) Middleware {
	return Middleware{Config: cfg, Skipper: skipper}
}

// WithVerifier returns a copy of m that runs v on every parsed token.
func (m Middleware) WithVerifier(v Verifier) Middleware {
	m.Verifier = v
	return m
}

// WithErrorWriter returns a copy of m that renders failures through fn.
func (m Middleware) WithErrorWriter(fn ErrorWriter) Middleware {
	m.OnError = fn
	return m
}

// Wrap wraps an http.Handler with authentication.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Skipper != nil && m.Skipper(r) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.parseRequest(r)
		if err != nil {
			m.fail(w, r, err)
			return
		}
		ctx := WithClaims(r.Context(), claims)
		if m.Verifier != nil {
			ctx, err = m.Verifier(ctx, claims)
			if err != nil {
				m.fail(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) fail(w http.ResponseWriter, r *http.Request, err error) {
	if m.OnError != nil {
		m.OnError(w, r, err)
		return
	}
	http.Error(w, err.Error(), http.StatusUnauthorized)
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return Parse(token, m.Config)
}
