package chat_handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/handlers"
	chat_service "github.com/thira3721-ai/roomhy/internal/use-case/chat-case"
)

type ChatHandler struct {
	Validate *validator.Validate
	Service  chat_service.ChatServiceContract
}

func NewChatHandler(service chat_service.ChatServiceContract) *ChatHandler {
	return &ChatHandler{
		Validate: validator.New(),
		Service:  service,
	}
}

func (h *ChatHandler) CreateRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.CreateRoomRequest
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.CreateOrGetRoom(r.Context(), actor, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "room ready", *resp)
	return nil
}

func (h *ChatHandler) ListRooms(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	rooms, appErr := h.Service.ListRooms(r.Context(), actor)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "rooms fetched successfully", rooms)
	return nil
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.SendMessageRequest
	defer r.Body.Close()

	roomID := chi.URLParam(r, "roomId")
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.SendMessage(r.Context(), actor, roomID, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "message sent successfully", *resp)
	return nil
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var req chat_dto.GetMessagesRequest
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return app_error.NewAppError(http.StatusBadRequest, "limit must be a positive integer", "limit")
		}
		req.Limit = limit
	}
	if v := r.URL.Query().Get("before_id"); v != "" {
		req.BeforeID = &v
	}

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	resp, appErr := h.Service.GetMessages(r.Context(), actor, roomID, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "messages fetched successfully", *resp)
	return nil
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	count, appErr := h.Service.MarkRead(r.Context(), actor, roomID)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "messages marked as read", map[string]any{"modified": count})
	return nil
}

func (h *ChatHandler) CloseRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	var req struct {
		Reason string `json:"reason"`
	}
	defer r.Body.Close()
	json.NewDecoder(r.Body).Decode(&req)

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	if appErr := h.Service.CloseRoom(r.Context(), actor, roomID, req.Reason); appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "room closed", map[string]any{"room_id": roomID})
	return nil
}

func (h *ChatHandler) ReopenRoom(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	if appErr := h.Service.ReopenRoom(r.Context(), actor, roomID); appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "room reopened", map[string]any{"room_id": roomID})
	return nil
}

func (h *ChatHandler) ScheduleVisit(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.ScheduleVisitRequest
	defer r.Body.Close()

	roomID := chi.URLParam(r, "roomId")
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, "Invalid JSON", "body")
	}
	if err := h.Validate.Struct(req); err != nil {
		return app_error.NewAppError(http.StatusBadRequest, fmt.Sprintf("Invalid fields: %v", err), "validation")
	}

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	visit, appErr := h.Service.ScheduleVisit(r.Context(), actor, roomID, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "visit scheduled", *visit)
	return nil
}

func (h *ChatHandler) ListVisits(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	roomID := chi.URLParam(r, "roomId")

	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	visits, appErr := h.Service.ListVisits(r.Context(), actor, roomID)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "visits fetched successfully", visits)
	return nil
}
