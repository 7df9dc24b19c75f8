package app_error

import (
	"encoding/json"
	"net/http"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return e.Message
}

func (e AppError) JSON(w http.ResponseWriter) error {
	return json.NewEncoder(w).Encode(e)
}

func NewAppError(code int, msg, field string) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Field:   field,
	}
}

// Taxonomy constructors. Validation errors are rejected before any
// persistence attempt; NotFound/Forbidden have no side effects and are
// never retried; Persistence failures are fatal to the current send but
// never to the connection or the room. Delivery failures to individual
// subscribers never become an AppError at all - they are logged and
// isolated inside the hub.

func NewValidation(msg, field string) *AppError {
	return NewAppError(http.StatusBadRequest, msg, field)
}

func NewNotFound(msg, field string) *AppError {
	return NewAppError(http.StatusNotFound, msg, field)
}

func NewForbidden(msg, field string) *AppError {
	return NewAppError(http.StatusForbidden, msg, field)
}

// NewRoomUnavailable marks joins/sends against closed, archived or
// rejected rooms.
func NewRoomUnavailable(msg string) *AppError {
	return NewAppError(http.StatusGone, msg, "room-unavailable")
}

func NewPersistence(msg, field string) *AppError {
	return NewAppError(http.StatusInternalServerError, msg, field)
}

func IsNotFound(err *AppError) bool {
	return err != nil && err.Code == http.StatusNotFound
}
