package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
	"github.com/vannoorsab/visionEndeavorius/libs/go/auth"
)

type sessionKey struct{}

func withSession(ctx context.Context, s *identity.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFromContext(ctx context.Context) (*identity.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*identity.Session)
	return s, ok && s != nil
}

var errSessionMismatch = errors.New("token does not belong to this session")

// guard admits a request only when its bearer token parses and the session it
// names is still live.
func (h *Handler) guard(tokens auth.Config) func(http.Handler) http.Handler {
	mw := auth.NewMiddleware(tokens, nil).
		WithVerifier(func(ctx context.Context, claims *auth.Claims) (context.Context, error) {
			s, err := h.gateway.Resume(ctx, claims.SessionID)
			if err != nil {
				return ctx, err
			}
			if s.UID() != claims.Subject {
				return ctx, errSessionMismatch
			}
			return withSession(ctx, s), nil
		}).
		WithErrorWriter(func(w http.ResponseWriter, r *http.Request, err error) {
			if unauthorized(err) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "sign in to continue")
				return
			}
			writeAppError(w, h.logger, err)
		})
	return mw.Wrap
}

func unauthorized(err error) bool {
	return errors.Is(err, auth.ErrMissingToken) ||
		errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, errSessionMismatch) ||
		apperr.Is(err, apperr.KindAuthentication)
}

// requestLogger logs one line per request once the response is written.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", chimiddleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
