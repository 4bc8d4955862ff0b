// Package v1handler implements the v1 HTTP routes: the cookie status report,
// the health route and the shared error envelope.
package v1handler

import (
	"context"
	"errors"
	"net/http"

	"cookiestatus/internal/checker"
	"cookiestatus/pkg/controller"
	"cookiestatus/pkg/logger"
	"cookiestatus/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// Deps are the collaborators of the v1 handlers.
type Deps struct {
	Checker checker.Checker
	// CookiesDir is the directory every status request inspects.
	CookiesDir string
	// Service and Version are reported by the health route.
	Service string
	Version string
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	if deps.Service == "" {
		deps.Service = "cookiestatus"
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	return &Handler{deps: deps}
}

// ErrorBody is the JSON envelope of every error response.
type ErrorBody struct {
	Code    string
	Message string
	// RequestID is omitted when the request carried none.
	RequestID string
}

// ErrorResponse pairs an ErrorBody with its HTTP status.
type ErrorResponse struct {
	StatusCode int
	Response   ErrorBody
}

// NewError maps err onto an HTTP status through its serrors kind. Errors
// without a known kind become 500 and their details are only logged.
func (h Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	status, kind, fallback := http.StatusInternalServerError, serrors.ErrInternal, "internal error"
	switch {
	case errors.Is(err, serrors.ErrNotFound):
		status, kind, fallback = http.StatusNotFound, serrors.ErrNotFound, "resource not found"
	case errors.Is(err, serrors.ErrUnauthorized):
		status, kind, fallback = http.StatusUnauthorized, serrors.ErrUnauthorized, "unauthorized"
	case errors.Is(err, serrors.ErrBadRequest):
		status, kind, fallback = http.StatusBadRequest, serrors.ErrBadRequest, "bad request"
	case errors.Is(err, serrors.ErrUnavailable):
		status, kind, fallback = http.StatusServiceUnavailable, serrors.ErrUnavailable, "request timed out"
	}

	requestID := controller.RequestID(ctx)
	if status == http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err), zap.Int("status_code", status))
	} else {
		logger.Debug(ctx, "request rejected", zap.Error(err), zap.Int("status_code", status))
	}

	msg := fallback
	var se *serrors.Error
	if status != http.StatusInternalServerError && errors.As(err, &se) && se.Message() != "" {
		msg = se.Message()
	}

	return &ErrorResponse{
		StatusCode: status,
		Response:   ErrorBody{Code: kind.Error(), Message: msg, RequestID: requestID},
	}
}

// EncodeError renders the error envelope for err without writing it. It serves
// bodies that are fixed up front, such as the request timeout response.
func (h Handler) EncodeError(ctx context.Context, err error) (int, []byte) {
	res := h.NewError(ctx, err)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encodeError(e, res.Response)

	return res.StatusCode, append([]byte(nil), e.Bytes()...)
}

// WriteError writes the error envelope for err.
func (h Handler) WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	res := h.NewError(ctx, err)
	writeJSON(ctx, w, res.StatusCode, func(e *jx.Encoder) {
		encodeError(e, res.Response)
	})
}

// NotFound answers every route the mux does not know.
func (h Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.WriteError(r.Context(), w, serrors.With(serrors.ErrNotFound, "no route for %s", r.URL.Path))
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := writeBody(w, e); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}
