package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/types"
)

const maxBodyBytes = 1 << 20

type contextKey string

const contextIdentityKey contextKey = "identity"

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// MessageResponse acknowledges an action with no resource to return.
type MessageResponse struct {
	Message string `json:"message"`
}

func withIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, contextIdentityKey, identity)
}

// IdentityFromContext returns the identity injected by RequireAuth.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(contextIdentityKey).(types.Identity)
	if !ok || identity.ID == uuid.Nil {
		return types.Identity{}, false
	}
	return identity, true
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &services.ValidationError{Message: "request body is required"}
		}
		return &services.ValidationError{Message: fmt.Sprintf("invalid request body: %s", jsonErrorMessage(err))}
	}
	return nil
}

func jsonErrorMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %s has the wrong type", typeErr.Field)
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "body too large"
	}
	return strings.TrimPrefix(err.Error(), "json: ")
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return uuid.Nil, &services.ValidationError{Field: name, Message: "invalid id"}
	}
	return id, nil
}

// ErrorPolicy renders service errors as HTTP responses. Store failures and
// unknown errors are logged and answered with a generic 500.
type ErrorPolicy struct {
	// ConcealForbidden answers ownership denials with 404 so callers cannot
	// probe for other users' ids.
	ConcealForbidden bool
	Logger           *slog.Logger
}

func (p ErrorPolicy) Write(w http.ResponseWriter, r *http.Request, err error) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validation.Message, Field: validation.Field})
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		if p.ConcealForbidden {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		if p.Logger != nil {
			p.Logger.Error("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", middleware.GetReqID(r.Context()),
				"error", err,
			)
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
