package handlers

import (
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/internal/dtos"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/middleware"
	chat_service "github.com/thira3721-ai/roomhy/internal/use-case/chat-case"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type HandlerFunc func(w http.ResponseWriter, r *http.Request) *app_error.AppError

func WrapHandler(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("error occur, request id: %s", r.Header.Get("X-Request-ID")))
			writeJSON(w, err.Code, dtos.ErrResponse(err.Code, err.Message, err.Field, r.Header.Get("X-Request-ID")))
		}
	}
}

func CreateResponse[T any](message string, data T, requestId string) dtos.Response[T] {
	return dtos.Response[T]{
		Message:   message,
		Data:      data,
		RequestID: requestId,
	}
}

// WriteResponse marshals the standard success envelope.
func WriteResponse[T any](w http.ResponseWriter, r *http.Request, message string, data T) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CreateResponse(message, data, middleware.RequestID(r)))
}

// ActorFromRequest maps the authenticated user onto a chat actor.
func ActorFromRequest(r *http.Request) (chat_service.Actor, *app_error.AppError) {
	user := middleware.UserFromContext(r.Context())
	if user == nil || user.ID == "" {
		return chat_service.Actor{}, app_error.NewAppError(http.StatusUnauthorized, "user not found in context", "context")
	}
	return chat_service.Actor{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Role:        user.Role,
	}, nil
}
