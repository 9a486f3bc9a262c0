package httpkit

import (
	"encoding/json"
	"net/http"

	"reel/internal/pkg/errors"
)

// ErrorEnvelope is the wire shape of every error response.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// DecodeJSON decodes a request body strictly: unknown fields are rejected, so
// a request with an unexpected field never reaches a downstream service.
func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteErr writes an error envelope.
func WriteErr(w http.ResponseWriter, status int, errText, msg string) {
	WriteJSON(w, status, ErrorEnvelope{Error: errText, Message: msg})
}

// WriteError writes a coded error using its own HTTP status mapping.
func WriteError(w http.ResponseWriter, err error) {
	WriteErr(w, errors.GetHTTPStatus(err), string(errors.GetCode(err)), err.Error())
}
