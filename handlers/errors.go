package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/andrewpaige1/problempad/models"
	"github.com/andrewpaige1/problempad/utils"
	"go.uber.org/zap"
)

type ErrorKind int

const (
	KindStore ErrorKind = iota
	KindValidation
	KindNotFound
)

// APIError is what a handler fails with. Message is sent to the caller;
// Err is only logged.
type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Status maps the error kind to an HTTP status code.
func (e *APIError) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func validationError(msg string) *APIError {
	return &APIError{Kind: KindValidation, Message: msg}
}

func notFoundError(msg string) *APIError {
	return &APIError{Kind: KindNotFound, Message: msg}
}

func storeError(msg string, err error) *APIError {
	return &APIError{Kind: KindStore, Message: msg, Err: err}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (db *DBHandler) writeError(w http.ResponseWriter, r *http.Request, op string, apiErr *APIError) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", apiErr.Status()),
		zap.String("message", apiErr.Message),
	}
	if requestID, ok := utils.GetRequestID(r.Context()); ok {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if apiErr.Err != nil {
		fields = append(fields, zap.Error(apiErr.Err))
	}

	if apiErr.Kind == KindStore {
		db.logger().Error("request failed", fields...)
	} else {
		db.logger().Info("request rejected", fields...)
	}

	writeJSON(w, apiErr.Status(), models.ErrorResponse{Error: apiErr.Message})
}
