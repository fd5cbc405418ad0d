// Package httpx holds the JSON request and response helpers shared by HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/logger"
)

const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned by Decode when the body is not a JSON object.
var ErrInvalidBody = apperror.BadRequest("Invalid request body")

type errorBody struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error maps err onto the apperror taxonomy and writes {"message", "errorCode"}.
// Internal errors are logged with the request logger and hidden from the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperror.StatusOf(err)
	kind := apperror.KindOf(err)
	if status >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("request failed", zap.Error(err))
	}
	JSON(w, status, errorBody{Message: apperror.MessageOf(err), ErrorCode: string(kind)})
}

// Decode reads a JSON body into v. Unknown fields are ignored; an empty body leaves v untouched.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return ErrInvalidBody
	}
	return nil
}
