package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testConfig = Config{Secret: "test-secret", Issuer: "vision-endeavours.test", TTL: time.Hour}

func TestIssueAndParse(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	token, expires, err := Issue(testConfig, "user-1", "session-1", "alice@example.com", now)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour), expires)

	claims, err := Parse(token, testConfig)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "session-1", claims.SessionID)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, expires.Unix(), claims.ExpiresAt.Unix())
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, _, err := Issue(testConfig, "user-1", "session-1", "", time.Now())
	require.NoError(t, err)

	_, err = Parse(token, Config{Secret: testConfig.Secret, Issuer: "someone-else"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, _, err := Issue(testConfig, "user-1", "session-1", "", time.Now().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = Parse(token, testConfig)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseEmptyToken(t *testing.T) {
	_, err := Parse("   ", testConfig)
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestMiddlewareRunsVerifier(t *testing.T) {
	token, _, err := Issue(testConfig, "user-1", "session-1", "", time.Now())
	require.NoError(t, err)

	type key struct{}
	mw := NewMiddleware(testConfig, nil).WithVerifier(func(ctx context.Context, c *Claims) (context.Context, error) {
		if c.SessionID != "session-1" {
			return ctx, errors.New("unknown session")
		}
		return context.WithValue(ctx, key{}, "verified"), nil
	})

	var seen string
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(key{}).(string)
		claims, ok := FromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "user-1", claims.Subject)
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Equal(t, "verified", seen)
}

func TestMiddlewareRejectsVerifierFailure(t *testing.T) {
	token, _, err := Issue(testConfig, "user-1", "session-2", "", time.Now())
	require.NoError(t, err)

	var rendered error
	mw := NewMiddleware(testConfig, nil).
		WithVerifier(func(ctx context.Context, c *Claims) (context.Context, error) {
			return ctx, errors.New("session ended")
		}).
		WithErrorWriter(func(w http.ResponseWriter, r *http.Request, err error) {
			rendered = err
			w.WriteHeader(http.StatusUnauthorized)
		})

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.EqualError(t, rendered, "session ended")
}

func TestMiddlewareSkipper(t *testing.T) {
	mw := NewMiddleware(testConfig, func(r *http.Request) bool { return r.URL.Path == "/healthz" })
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/profile", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}
