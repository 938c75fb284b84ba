package response

import (
	"encoding/json"
	"net/http"
)

// StatusSessionExpired is a custom 4xx used when a device session is no
// longer recognized, so clients can distinguish it from a plain 401/404.
const StatusSessionExpired = 440

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status: "success",
		Data:   data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func Error(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status:  "error",
		Message: msg,
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// ErrorData is Error with an extra payload, e.g. seconds remaining on a
// lockout or the active session list on a session-expired response.
func ErrorData(w http.ResponseWriter, status int, msg string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIResponse{
		Status:  "error",
		Message: msg,
		Data:    data,
	}
	_ = json.NewEncoder(w).Encode(resp)
}
