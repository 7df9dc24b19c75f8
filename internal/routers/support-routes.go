package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/thira3721-ai/roomhy/internal/handlers"
	inquiry_handler "github.com/thira3721-ai/roomhy/internal/handlers/inquiry-handler"
	support_handler "github.com/thira3721-ai/roomhy/internal/handlers/support-handler"
	"github.com/thira3721-ai/roomhy/internal/middleware"
	"github.com/thira3721-ai/roomhy/state"
)

func SupportRouter(r chi.Router, appState *state.AppState, deps *Deps) {
	supportHandler := support_handler.NewSupportHandler(deps.Support)
	inquiryHandler := inquiry_handler.NewInquiryHandler(deps.Inquiry)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(appState.JwtSecret.Public))

		protected.Route("/api/v1/tickets", func(r chi.Router) {
			r.Post("/", handlers.WrapHandler(supportHandler.CreateTicket))
			r.Get("/", handlers.WrapHandler(supportHandler.ListTickets))
			r.Patch("/{ticketId}/status", handlers.WrapHandler(supportHandler.UpdateStatus))
		})

		protected.Route("/api/v1/inquiries", func(r chi.Router) {
			r.Post("/", handlers.WrapHandler(inquiryHandler.SendInquiry))
			r.Get("/", handlers.WrapHandler(inquiryHandler.ListInquiries))
			r.Patch("/{inquiryId}/respond", handlers.WrapHandler(inquiryHandler.RespondInquiry))
		})
	})
}
