package group_handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/thira3721-ai/roomhy/internal/dtos/chat_dto"
	app_error "github.com/thira3721-ai/roomhy/internal/errors"
	"github.com/thira3721-ai/roomhy/internal/handlers"
	chat_service "github.com/thira3721-ai/roomhy/internal/use-case/chat-case"
)

type GroupHandler struct {
	Validate *validator.Validate
	Service  chat_service.GroupServiceContract
}

func NewGroupHandler(service chat_service.GroupServiceContract) *GroupHandler {
	return &GroupHandler{
		Validate: validator.New(),
		Service:  service,
	}
}

func (h *GroupHandler) CreateGroup(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.CreateGroupRequest
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

	resp, appErr := h.Service.CreateGroup(r.Context(), actor, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "group created", *resp)
	return nil
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.AddGroupMemberRequest
	defer r.Body.Close()

	groupID := chi.URLParam(r, "groupId")
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

	if appErr := h.Service.AddGroupMember(r.Context(), actor, groupID, req); appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "member added", map[string]any{"group_id": groupID, "user_id": req.UserID})
	return nil
}

func (h *GroupHandler) ListGroups(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	groups, appErr := h.Service.ListGroups(r.Context(), actor)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "groups fetched successfully", groups)
	return nil
}
