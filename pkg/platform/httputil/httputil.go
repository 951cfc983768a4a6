// Package httputil centralizes JSON response writing and request decoding so
// handlers stay thin and error envelopes stay consistent across modules.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	derrors "caredex/pkg/domain-errors"
)

// errorBody is the JSON error envelope returned by every endpoint.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the standard JSON error envelope.
// Internal errors omit the description so infrastructure details never leak
// to clients; everything else includes the domain message.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := errorBody{Error: string(code)}
	if code != derrors.CodeInternal {
		body.ErrorDescription = derrors.MessageOf(err)
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput, derrors.CodeBadRequest, derrors.CodeInvariantViolation:
		return http.StatusBadRequest
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case derrors.CodeForbidden:
		return http.StatusForbidden
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeConflict:
		return http.StatusConflict
	case derrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// DecodeAndPrepare decodes the JSON request body into T and runs its Validate
// method when present. On failure it writes the error response and returns
// ok=false so callers can simply return.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(ctx, "malformed request body",
				"request_id", requestID,
				"error", err,
			)
		}
		WriteError(w, derrors.New(derrors.CodeBadRequest, "malformed JSON body"))
		return req, false
	}
	if v, ok := any(&req).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			WriteError(w, err)
			return req, false
		}
	}
	return req, true
}
