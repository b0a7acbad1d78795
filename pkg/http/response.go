package http

import (
	"encoding/json"
	"net/http"
	apperrors "tablereserve/pkg/errors"
)

// Envelope is the single response shape of every endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps err onto the failure envelope. Anything that is not an
// AppError is reported as a generic 500.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)
	return WriteJSON(w, appErr.StatusCode(), Envelope{
		Success: false,
		Message: appErr.PublicMessage(),
	})
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data})
}

func WriteList(w http.ResponseWriter, data any, count int) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Count: &count, Data: data})
}

// WriteUnsuccessful reports a handled, non-error outcome such as an empty
// availability search.
func WriteUnsuccessful(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, Envelope{Success: false, Message: message})
}

// WriteEmpty answers a delete with `{success:true, data:{}}`.
func WriteEmpty(w http.ResponseWriter) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: struct{}{}})
}
