package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/aussiebroadwan/identity/internal/identity/apperr"
	"github.com/aussiebroadwan/identity/pkg/httpx"
	"github.com/aussiebroadwan/identity/pkg/slogx"
)

const maxBodyBytes = 1 << 20

// validatable is implemented by every identitysdk request DTO.
type validatable interface {
	Validate() error
}

// decode reads a JSON body into dst and validates it. On failure the error
// response has already been written and ok is false.
func decode(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slogx.FromContext(r.Context()).Info("request body rejected", slog.Any("error", err))
		writeError(w, r, apperr.InvalidRequest.WithMessage("Request body must be valid JSON"))
		return false
	}
	if err := dst.Validate(); err != nil {
		writeValidation(w, r, err)
		return false
	}
	return true
}

// writeValidation answers 400 with the per-field messages in data.
func writeValidation(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		writeError(w, r, apperr.InvalidRequest.Wrap(err))
		return
	}

	fields := make(map[string]string, len(verrs))
	for k, v := range verrs {
		fields[k] = v.Error()
	}
	slogx.FromContext(r.Context()).Info("request validation failed", slog.Any("fields", fields))

	e := apperr.InvalidRequest
	httpx.WriteJSON(w, e.Status, httpx.Envelope{
		Code:    e.Code,
		Message: "Validation failed",
		Data:    fields,
	})
}

// writeError maps err onto the error envelope. Causes are logged, never
// returned to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.From(err)
	l := slogx.FromContext(r.Context())
	if e.Kind == apperr.Business {
		l.Info("request failed", slog.Int("code", e.Code), slog.String("reason", e.Message))
	} else {
		l.Error("request failed", slog.Int("code", e.Code), slog.Any("error", err))
	}
	httpx.WriteError(w, e.Status, e.Code, e.Message)
}
