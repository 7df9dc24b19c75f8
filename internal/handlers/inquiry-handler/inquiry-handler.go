package inquiry_handler

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

type InquiryHandler struct {
	Validate *validator.Validate
	Service  chat_service.InquiryServiceContract
}

func NewInquiryHandler(service chat_service.InquiryServiceContract) *InquiryHandler {
	return &InquiryHandler{
		Validate: validator.New(),
		Service:  service,
	}
}

func (h *InquiryHandler) SendInquiry(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.SendInquiryRequest
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

	inquiry, appErr := h.Service.SendInquiry(r.Context(), actor, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "inquiry sent", *inquiry)
	return nil
}

func (h *InquiryHandler) RespondInquiry(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	var req chat_dto.RespondInquiryRequest
	defer r.Body.Close()

	inquiryID := chi.URLParam(r, "inquiryId")
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

	inquiry, appErr := h.Service.RespondInquiry(r.Context(), actor, inquiryID, req)
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "inquiry responded", *inquiry)
	return nil
}

func (h *InquiryHandler) ListInquiries(w http.ResponseWriter, r *http.Request) *app_error.AppError {
	actor, appErr := handlers.ActorFromRequest(r)
	if appErr != nil {
		return appErr
	}

	inquiries, appErr := h.Service.ListInquiries(r.Context(), actor,
		r.URL.Query().Get("property_id"), r.URL.Query().Get("status"))
	if appErr != nil {
		return appErr
	}

	handlers.WriteResponse(w, r, "inquiries fetched successfully", inquiries)
	return nil
}
