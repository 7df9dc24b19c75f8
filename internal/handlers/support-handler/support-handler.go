package support_handler

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

type SupportHandler struct {
	Validate *validator.Validate
	Service  chat_service.SupportServiceContract
}

func NewSupportHandler(service chat_service.SupportServiceContract) *SupportHandler {
	return &SupportHandler{
		Validate: validator.New(),
		Service:  service,
	}
}

func (h *SupportHandler) CreateTicket(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.CreateTicketRequest
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

	ticket, appErr := h.Service.CreateTicket(r.Context(), actor, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "ticket created", *ticket)
	return nil
}

func (h *SupportHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.UpdateTicketStatusRequest
	defer r.Body.Close()

	ticketID := chi.URLParam(r, "ticketId")
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

	ticket, appErr := h.Service.UpdateTicketStatus(r.Context(), actor, ticketID, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "ticket status updated", *ticket)
	return nil
}

func (h *SupportHandler) ListTickets(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	tickets, appErr := h.Service.ListTickets(r.Context(), actor, r.URL.Query().Get("status"))
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "tickets fetched successfully", tickets)
	return nil
}
