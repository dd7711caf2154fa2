// Package httpapi wires the admin REST surface, the public REST/SSE
// surface, the buzzer websocket upgrade, and /healthz + /metrics onto a
// chi router.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"neon-beat-back/internal/apperrors"
	"neon-beat-back/internal/jsonutil"
)

// errorBody is the {"error":{"code","message"}} wire shape for every
// non-2xx response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeError maps a service error onto an HTTP status and the error
// envelope.
func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	body := errorBody{}
	body.Error.Code = code
	body.Error.Message = err.Error()
	jsonutil.WriteJSON(w, status, body)
}

func statusFor(err error) (int, string) {
	se, ok := apperrors.As(err)
	if !ok {
		return http.StatusInternalServerError, "internal_error"
	}
	switch se.Kind {
	case apperrors.KindInvalidInput:
		return http.StatusBadRequest, "bad_request"
	case apperrors.KindUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case apperrors.KindNotFound:
		return http.StatusNotFound, "not_found"
	case apperrors.KindInvalidState:
		return http.StatusConflict, "conflict"
	case apperrors.KindUnavailable, apperrors.KindDegraded, apperrors.KindTimeout:
		return http.StatusServiceUnavailable, "service_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	jsonutil.WriteJSON(w, status, payload)
}

// decodeJSON decodes the request body into dst, writing a bad-request
// response and returning false on an empty or malformed body.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, apperrors.InvalidInput("request body must not be empty"))
			return false
		}
		writeError(w, apperrors.InvalidInput("malformed json request body"))
		return false
	}
	return true
}
