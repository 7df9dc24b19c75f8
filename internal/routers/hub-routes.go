package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/thira3721-ai/roomhy/internal/handlers"
	hub_handler "github.com/thira3721-ai/roomhy/internal/handlers/hub-handler"
	"github.com/thira3721-ai/roomhy/internal/middleware"
	"github.com/thira3721-ai/roomhy/state"
)

func HubRouter(r chi.Router, appState *state.AppState, deps *Deps) {
	hubHandler := hub_handler.NewHubHandler(deps.Hub, deps.Sessions)

	r.Get("/api/v1/health", hubHandler.HandleHealth)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(appState.JwtSecret.Public))

		protected.Route("/api/v1/hub", func(r chi.Router) {
			r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetStats))

			r.Route("/rooms/{roomId}", func(r chi.Router) {
				r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetRoomStats))
				r.Get("/clients", handlers.WrapHandler(hubHandler.HandleGetRoomClients))
				r.Post("/broadcast", handlers.WrapHandler(hubHandler.HandleBroadcastToRoom))
				r.Post("/kick", handlers.WrapHandler(hubHandler.HandleKickUser))
			})

			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/status", handlers.WrapHandler(hubHandler.HandleGetUserStatus))
				r.Get("/connections", handlers.WrapHandler(hubHandler.HandleGetUserConnections))
				r.Post("/broadcast", handlers.WrapHandler(hubHandler.HandleBroadcastToUser))
				r.Post("/disconnect", handlers.WrapHandler(hubHandler.HandleDisconnectUser))
			})
		})
	})
}
