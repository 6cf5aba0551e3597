package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vannoorsab/visionEndeavorius/libs/go/auth"
)

// RouterConfig holds the settings the router needs beyond the Handler.
type RouterConfig struct {
	Tokens         auth.Config
	AllowedOrigins []string
	// Blobs, when set, serves uploaded objects under /blobs/.
	Blobs http.Handler
}

// NewRouter mounts the public and session-guarded routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg.AllowedOrigins))

	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.Blobs != nil {
		r.Handle("/blobs/*", http.StripPrefix("/blobs/", cfg.Blobs))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.signUp)
		r.Post("/auth/signin", h.signIn)
		r.Get("/activities", h.listActivities)

		r.Group(func(r chi.Router) {
			r.Use(h.guard(cfg.Tokens))

			r.Post("/auth/signout", h.signOut)
			r.Post("/auth/password", h.changePassword)

			r.Get("/profile", h.getProfile)
			r.Patch("/profile", h.updateProfile)
			r.Put("/profile/avatar", h.uploadAvatar)

			r.Post("/activities/{activityID}/join", h.joinActivity)
			r.Get("/participations", h.listParticipations)
			r.Get("/dashboard", h.dashboard)

			r.Get("/certificates", h.listCertificates)
			r.Get("/certificates/{recordID}", h.downloadCertificate)
			r.Get("/certificates/{recordID}/preview", h.previewCertificate)
			r.Get("/certificates/{recordID}/preview.json", h.previewCertificateContent)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	})
	return r
}
