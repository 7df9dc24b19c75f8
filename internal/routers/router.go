package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thira3721-ai/roomhy/internal/middleware"
	chat_service "github.com/thira3721-ai/roomhy/internal/use-case/chat-case"
	"github.com/thira3721-ai/roomhy/internal/websocket"
	"github.com/thira3721-ai/roomhy/state"
)

// Deps carries the wired application pieces into route registration.
type Deps struct {
	Chat      *chat_service.ChatService
	Group     chat_service.GroupServiceContract
	Support   chat_service.SupportServiceContract
	Inquiry   chat_service.InquiryServiceContract
	Hub       *websocket.Hub
	Sessions  *websocket.SessionManager
	WSHandler *websocket.WebSocketHandler
}

func NewRouter(appState *state.AppState, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)

	// the ws handshake authenticates on its own (token in query or
	// header), so it sits outside the JWT middleware group
	r.Get("/ws", deps.WSHandler.Handle)

	ChatRouter(r, appState, deps)
	SupportRouter(r, appState, deps)
	HubRouter(r, appState, deps)
	return r
}
