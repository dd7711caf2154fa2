// Package jsonutil holds small JSON response helpers shared by transport code.
package jsonutil

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes the payload as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
