package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tmf.evalgo.org/tmferrors"
)

// errorResponse mirrors http.ErrorResponse's shape so clients see one
// consistent error body regardless of which layer raised it.
type errorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message,omitempty"`
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// ErrorHandler maps the engine's closed tmferrors.Kind taxonomy onto
// HTTP status codes, falling back to http.CustomHTTPErrorHandler's
// generic echo.HTTPError handling for anything else (validation
// errors raised directly by a handler, panics recovered by
// middleware.Recover, and so on).
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if kind, ok := tmferrors.KindOf(err); ok {
		status, label := statusForKind(kind)
		body := errorResponse{Error: label, Message: err.Error()}
		if tmfErr, ok := err.(*tmferrors.Error); ok {
			body.DuplicateOf = tmfErr.DuplicateOf
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
		return
	}

	if he, ok := err.(*echo.HTTPError); ok {
		message := he.Message
		if s, ok := message.(string); ok {
			_ = c.JSON(he.Code, errorResponse{Error: http.StatusText(he.Code), Message: s})
			return
		}
	}

	_ = c.JSON(http.StatusInternalServerError, errorResponse{
		Error:   http.StatusText(http.StatusInternalServerError),
		Message: err.Error(),
	})
}

func statusForKind(kind tmferrors.Kind) (int, string) {
	switch kind {
	case tmferrors.NotFoundKind:
		return http.StatusNotFound, "not_found"
	case tmferrors.UnauthorizedKind:
		return http.StatusForbidden, "unauthorized"
	case tmferrors.InvalidStateKind:
		return http.StatusConflict, "invalid_state"
	case tmferrors.InvalidInputKind:
		return http.StatusBadRequest, "invalid_input"
	case tmferrors.DuplicateAmendmentKind:
		return http.StatusConflict, "duplicate_amendment"
	case tmferrors.ConflictKind:
		return http.StatusConflict, "conflict"
	case tmferrors.SignatureFailedKind:
		return http.StatusUnprocessableEntity, "signature_failed"
	case tmferrors.StorageFailureKind:
		return http.StatusServiceUnavailable, "storage_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
