package api

import (
	"encoding/json"
	"net/http"
)

// envelope is the response body shape the dashboard consumes. Success
// responses carry data and usually a message; failures carry the message
// alone.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func sseData(evt SSEEvent) []byte {
	b, err := json.Marshal(evt.Data)
	if err != nil {
		return []byte("{}")
	}
	return b
}
