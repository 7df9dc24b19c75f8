package routers

import (
	"github.com/go-chi/chi/v5"
	"github.com/thira3721-ai/roomhy/internal/handlers"
	chat_handler "github.com/thira3721-ai/roomhy/internal/handlers/chat-handler"
	group_handler "github.com/thira3721-ai/roomhy/internal/handlers/group-handler"
	"github.com/thira3721-ai/roomhy/internal/middleware"
	"github.com/thira3721-ai/roomhy/state"
)

func ChatRouter(r chi.Router, appState *state.AppState, deps *Deps) {
	chatHandler := chat_handler.NewChatHandler(deps.Chat)
	groupHandler := group_handler.NewGroupHandler(deps.Group)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.JWTAuth(appState.JwtSecret.Public))

		protected.Route("/api/v1/rooms", func(r chi.Router) {
			r.Post("/", handlers.WrapHandler(chatHandler.CreateRoom))
			r.Get("/", handlers.WrapHandler(chatHandler.ListRooms))

			r.Route("/{roomId}", func(r chi.Router) {
				r.Post("/messages", handlers.WrapHandler(chatHandler.SendMessage))
				r.Get("/messages", handlers.WrapHandler(chatHandler.GetMessages))
				r.Patch("/read", handlers.WrapHandler(chatHandler.MarkRead))
				r.Post("/close", handlers.WrapHandler(chatHandler.CloseRoom))
				r.Post("/reopen", handlers.WrapHandler(chatHandler.ReopenRoom))
				r.Post("/visits", handlers.WrapHandler(chatHandler.ScheduleVisit))
				r.Get("/visits", handlers.WrapHandler(chatHandler.ListVisits))
			})
		})

		protected.Route("/api/v1/groups", func(r chi.Router) {
			r.Post("/", handlers.WrapHandler(groupHandler.CreateGroup))
			r.Get("/", handlers.WrapHandler(groupHandler.ListGroups))
			r.Post("/{groupId}/members", handlers.WrapHandler(groupHandler.AddMember))
		})
	})
}
