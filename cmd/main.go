package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/thira3721-ai/roomhy/config"
	"github.com/thira3721-ai/roomhy/internal/queue"
	"github.com/thira3721-ai/roomhy/internal/routers"
	chat_service "github.com/thira3721-ai/roomhy/internal/use-case/chat-case"
	"github.com/thira3721-ai/roomhy/internal/websocket"
	"github.com/thira3721-ai/roomhy/internal/worker"
	"github.com/thira3721-ai/roomhy/state"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appState, err := state.InitAppState(ctx, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize application state")
	}
	defer appState.Close()

	hub := websocket.NewHub(config.Conf.CHAT.MonitorRoom, config.Conf.CHAT.PresenceNotifySelf)
	sessions := websocket.NewSessionManager(hub, config.Conf.CHAT.SendBuffer)
	log.Info().Msg("Websocket hub initialized")

	producer := queue.NewProducer(appState.Redis)
	areas := chat_service.NewRedisAreaResolver(appState.Redis)
	chatService := chat_service.NewChatService(appState, hub, producer, areas)
	liveRouter := chat_service.NewLiveRouter(chatService, sessions)

	authFunc := websocket.JWTWebSocketAuth(appState.JwtSecret.Public)
	wsHandler := websocket.NewWebSocketHandler(hub, sessions, liveRouter, authFunc)
	wsHandler.MaxConnections = config.Conf.CHAT.MaxConnections
	wsHandler.RateLimit.ConnectionsPerIP = config.Conf.CHAT.ConnectionsPerIP
	go wsHandler.StartCleanup(ctx)
	log.Info().Msg("Websocket handler initialized")

	r := routers.NewRouter(appState, &routers.Deps{
		Chat:      chatService,
		Group:     chat_service.NewGroupService(chatService),
		Support:   chat_service.NewSupportService(chatService),
		Inquiry:   chat_service.NewInquiryService(chatService),
		Hub:       hub,
		Sessions:  sessions,
		WSHandler: wsHandler,
	})

	workerPool := worker.NewWorkerPool(appState.Redis, config.Conf.WORKER.PoolSize, hub)
	workerPool.Start(ctx)
	workerPool.StartDLQRetryConsumer(ctx)

	server := &http.Server{
		Addr:         config.Conf.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Msgf("Starting server on http://localhost%s", config.Conf.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(fmt.Sprintf("ListenAndServe failed: %v", err))
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutdown initiated...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Graceful shutdown failed: %v\n", err)
	} else {
		fmt.Println("Server exited gracefully.")
	}

	hub.Close()
	workerPool.Wait()
}
