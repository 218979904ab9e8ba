// Package api provides the request/response shapes of the HTTP surface
// and standardized helpers for writing them.
package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/sovadim/knowledge-engine/pkg/errors"
)

// Success sends a successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error sends an error response with a consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, errType apperrors.ErrorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Type: string(errType), Error: message})
}

// HandleError maps an application error onto the wire.
func HandleError(w http.ResponseWriter, err error) {
	Error(w, apperrors.HTTPStatus(err), apperrors.TypeOf(err), err.Error())
}
