// Package shared holds response helpers used by every handler package.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "ledgerdesk/pkg/domain-errors"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteError maps a coded error onto an HTTP status and JSON body. Unknown
// error types surface as 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	body := errorBody{
		Error:   string(dErrors.CodeInternal),
		Message: "internal server error",
	}
	status := http.StatusInternalServerError

	var coded *dErrors.Error
	if errors.As(err, &coded) {
		status = dErrors.ToHTTPStatus(coded.Code)
		body.Error = string(coded.Code)
		body.Message = coded.Message
		body.Details = coded.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
