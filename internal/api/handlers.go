// Package api exposes the volunteering service over HTTP.
package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/catalog"
	"github.com/vannoorsab/visionEndeavorius/internal/certificate"
	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/ledger"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
	"github.com/vannoorsab/visionEndeavorius/internal/observability"
	"github.com/vannoorsab/visionEndeavorius/libs/go/auth"
)

// Handler serves every route of the API.
type Handler struct {
	gateway  *identity.Gateway
	ledger   *ledger.Service
	pdf      certificate.Renderer
	preview  certificate.Renderer
	validate *validator.Validate
	logger   *logging.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(logger *logging.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRenderers replaces the certificate renderers.
func WithRenderers(pdf, preview certificate.Renderer) Option {
	return func(h *Handler) {
		h.pdf = pdf
		h.preview = preview
	}
}

// NewHandler builds a Handler with the default PDF and PNG renderers.
func NewHandler(gateway *identity.Gateway, participation *ledger.Service, opts ...Option) (*Handler, error) {
	h := &Handler{
		gateway:  gateway,
		ledger:   participation,
		pdf:      certificate.NewPDFRenderer(),
		validate: newValidator(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.preview == nil {
		preview, err := certificate.NewPreviewRenderer(0)
		if err != nil {
			return nil, fmt.Errorf("create preview renderer: %w", err)
		}
		h.preview = preview
	}
	return h, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.gateway.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileView(*profile))
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.gateway.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	resp := SignInResponse{
		Token:     result.Token,
		SessionID: result.Session.ID,
		ExpiresAt: result.ExpiresAt,
	}
	if ready, ok := result.Session.Profile().(identity.Ready); ok {
		resp.Profile = toProfileView(ready.Profile)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	if err := h.gateway.SignOut(r.Context(), claims.Subject, claims.SessionID); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	if err := h.gateway.ChangePassword(r.Context(), userID(r.Context()), req.CurrentPassword, req.NewPassword); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.gateway.Profile(r.Context(), userID(r.Context()))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.gateway.UpdateProfile(r.Context(), userID(r.Context()), req.toUpdate())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxAvatarBody)
	profile, err := h.gateway.UploadAvatar(r.Context(), userID(r.Context()), body)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(*profile))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ActivitiesResponse{Items: catalog.List()})
}

func (h *Handler) joinActivity(w http.ResponseWriter, r *http.Request) {
	activity, ok := catalog.Lookup(chi.URLParam(r, "activityID"))
	if !ok {
		writeError(w, http.StatusNotFound, string(apperr.KindNotFound), "activity not found")
		return
	}

	record, err := h.ledger.Join(r.Context(), userID(r.Context()), activity)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipationView(*record))
}

func (h *Handler) listParticipations(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())

	var (
		records []ledger.Record
		err     error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		records, err = h.ledger.ListForUser(r.Context(), uid)
	case string(ledger.StatusCompleted):
		records, err = h.ledger.ListCompletedForUser(r.Context(), uid)
	default:
		writeError(w, http.StatusBadRequest, string(apperr.KindValidation), "status must be completed when set")
		return
	}
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ParticipationsResponse{Items: toParticipationViews(records)})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ledger.Summarize(r.Context(), userID(r.Context()))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		Joined:                summary.Joined,
		Completed:             summary.Completed,
		CertificatesAvailable: summary.Completed,
		HoursVolunteered:      summary.HoursVolunteered,
		Activities:            toParticipationViews(summary.Activities),
	})
}

func (h *Handler) listCertificates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(ctx)

	profile, err := h.gateway.Profile(ctx, uid)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	records, err := h.ledger.ListCompletedForUser(ctx, uid)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	items := make([]CertificateView, 0, len(records))
	for _, rec := range records {
		req := certificateRequest(profile.DisplayName, rec)
		items = append(items, CertificateView{
			RecordID:      rec.ID,
			ActivityID:    rec.ActivityID,
			ActivityTitle: rec.ActivityTitle,
			Icon:          rec.Icon,
			Date:          req.CompletedDate,
			CompletedAt:   rec.CertificateDate().UTC(),
			Filename:      certificate.Filename(req, "pdf"),
		})
	}
	writeJSON(w, http.StatusOK, CertificatesResponse{Items: items})
}

func (h *Handler) downloadCertificate(w http.ResponseWriter, r *http.Request) {
	h.renderCertificate(w, r, h.pdf, "attachment", "pdf")
}

func (h *Handler) previewCertificate(w http.ResponseWriter, r *http.Request) {
	h.renderCertificate(w, r, h.preview, "inline", "png")
}

func (h *Handler) previewCertificateContent(w http.ResponseWriter, r *http.Request) {
	req, ok := h.certificateFor(w, r)
	if !ok {
		return
	}
	observability.RecordCertificateRendered("json")
	writeJSON(w, http.StatusOK, certificate.Preview(req))
}

func (h *Handler) renderCertificate(w http.ResponseWriter, r *http.Request, renderer certificate.Renderer, disposition, format string) {
	req, ok := h.certificateFor(w, r)
	if !ok {
		return
	}

	artifact, err := renderer.Render(req)
	if err != nil {
		h.logger.Error("certificate render failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "could not generate certificate")
		return
	}
	observability.RecordCertificateRendered(format)

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": artifact.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(artifact.Data); err != nil {
		h.logger.Warn("certificate write interrupted", "error", err)
	}
}

// certificateFor resolves the caller's completed record named in the URL.
// Records of other users and records not yet completed are reported as
// missing.
func (h *Handler) certificateFor(w http.ResponseWriter, r *http.Request) (certificate.Request, bool) {
	ctx := r.Context()
	uid := userID(ctx)

	record, err := h.ledger.Get(ctx, chi.URLParam(r, "recordID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return certificate.Request{}, false
	}
	if record.UserID != uid || !record.Completed() {
		writeError(w, http.StatusNotFound, string(apperr.KindNotFound), "certificate not found")
		return certificate.Request{}, false
	}

	profile, err := h.gateway.Profile(ctx, uid)
	if err != nil {
		writeAppError(w, h.logger, err)
		return certificate.Request{}, false
	}
	return certificateRequest(profile.DisplayName, *record), true
}

func userID(ctx context.Context) string {
	if s, ok := sessionFromContext(ctx); ok {
		return s.UID()
	}
	if claims, ok := auth.FromContext(ctx); ok {
		return claims.Subject
	}
	return ""
}
