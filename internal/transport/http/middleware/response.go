package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the handler envelope so rejected requests look the same
// as failed ones.
type errorBody struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{StatusCode: status, Message: msg})
}
