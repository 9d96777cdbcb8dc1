// Package httpx holds the JSON request/response helpers shared by every
// handler. Errors always serialize as {"error": code, "details": ...} so API
// clients can switch on a stable machine-readable code.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the uniform error body. Details carries field-level
// validation violations when present.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// JSON marshals payload and writes it with the given status. Marshaling
// happens before WriteHeader so an encode failure can still produce a 500
// instead of a truncated body.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// client went away mid-write, nothing left to do
		_ = err
	}
}

// JSONError writes an ErrorResponse with the given status.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Decode reads a JSON request body into dst. Unknown fields are rejected so
// clients notice typoed field names instead of silently losing data.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
