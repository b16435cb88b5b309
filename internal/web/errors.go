package web

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// ErrorResponse is the JSON body of every API error
type ErrorResponse struct {
	Status        int    `json:"status"`
	Kind          string `json:"kind,omitempty"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Encoding JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSONErrorKind(w, r, status, "", message)
}

func writeJSONErrorKind(w http.ResponseWriter, r *http.Request, status int, kind, message string) {
	writeJSON(w, status, ErrorResponse{
		Status:        status,
		Kind:          kind,
		Message:       message,
		CorrelationID: CorrelationID(r.Context()),
	})
}
