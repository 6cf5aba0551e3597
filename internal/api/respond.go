package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/vannoorsab/visionEndeavorius/internal/apperr"
	"github.com/vannoorsab/visionEndeavorius/internal/identity"
	"github.com/vannoorsab/visionEndeavorius/internal/logging"
)

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeAppError renders err with the status its kind maps to. Errors without
// a kind are logged and reported as a generic server error.
func writeAppError(w http.ResponseWriter, logger *logging.Logger, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "server_error", "something went wrong, please try again")
		return
	}
	writeError(w, statusFor(kind, err), string(kind), apperr.Message(err))
}

func statusFor(kind apperr.Kind, err error) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindIdentity:
		if errors.Is(err, identity.ErrEmailTaken) {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case apperr.KindAuthentication:
		return http.StatusUnauthorized
	case apperr.KindReauthentication:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindWrite:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(apperr.KindValidation), validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " long"
	case "eqfield":
		return "passwords do not match"
	default:
		return field + " is invalid"
	}
}
