package response

import (
	"net/http"

	"github.com/goccy/go-json"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func Error(w http.ResponseWriter, status int, message string, err error) error {
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}
	if err != nil {
		resp.Details = err.Error()
	}
	return JSON(w, status, resp)
}
