package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/efreeman/diplomat/internal/auth"
	"github.com/efreeman/diplomat/internal/config"
	"github.com/efreeman/diplomat/internal/engine"
	"github.com/efreeman/diplomat/internal/handler"
	"github.com/efreeman/diplomat/internal/lobby"
	"github.com/efreeman/diplomat/internal/logger"
	"github.com/efreeman/diplomat/internal/middleware"
	"github.com/efreeman/diplomat/internal/playerlog"
	"github.com/efreeman/diplomat/internal/repository/postgres"
	redisrepo "github.com/efreeman/diplomat/internal/repository/redis"
	"github.com/efreeman/diplomat/internal/users"
	"github.com/efreeman/diplomat/internal/ws"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("config loaded")

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()

	userRepo := postgres.NewUserRepo(db)
	lobbyRepo := redisrepo.NewLobbyRepo(redisClient)
	revocationStore := redisrepo.NewRevocationStore(redisClient)

	authority := auth.NewAuthority(cfg.JWTSecret, cfg.TokenTTL)
	userRegistry := users.NewRegistry(userRepo, authority, revocationStore)
	playerLog := playerlog.NewStore(cfg.PlayerLogDir)
	games := engine.NewStore()
	lobbies := lobby.NewCoordinator(lobbyRepo, userRegistry, authority, games, playerLog, cfg.TalkRounds)
	hub := ws.NewHub()

	identityHandler := handler.NewIdentityHandler(userRegistry, authority)
	lobbyHandler := handler.NewLobbyHandler(lobbies, games, userRegistry, authority, hub)
	gameHandler := handler.NewGameHandler(games, userRegistry, playerLog, hub, cfg.TalkRounds)
	wsHandler := handler.NewWSHandler(hub, userRegistry)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/auth/identity", identityHandler.CreateIdentity)
	mux.HandleFunc("POST /api/auth/login", identityHandler.Login)

	mux.HandleFunc("POST /api/lobby/create", lobbyHandler.Create)
	mux.HandleFunc("POST /api/lobby/join", lobbyHandler.Join)
	mux.HandleFunc("GET /api/lobby/{code}", lobbyHandler.Get)
	mux.HandleFunc("POST /api/lobby/{code}/start", lobbyHandler.Start)
	mux.HandleFunc("GET /api/lobby/{code}/game", lobbyHandler.Game)
	mux.HandleFunc("GET /api/lobby/{code}/orders", lobbyHandler.GetOrders)
	mux.HandleFunc("POST /api/lobby/{code}/orders", lobbyHandler.SubmitOrders)
	mux.HandleFunc("POST /api/lobby/{code}/ready", lobbyHandler.Ready)
	mux.HandleFunc("POST /api/lobby/{code}/process", lobbyHandler.Process)

	mux.HandleFunc("GET /api/games", gameHandler.List)
	mux.HandleFunc("POST /api/games", gameHandler.Create)
	mux.HandleFunc("GET /api/games/{id}", gameHandler.Get)
	mux.HandleFunc("DELETE /api/games/{id}", gameHandler.Delete)
	mux.HandleFunc("POST /api/games/{id}/join", gameHandler.Join)
	mux.HandleFunc("POST /api/games/{id}/leave", gameHandler.Leave)
	mux.HandleFunc("GET /api/games/{id}/orders", gameHandler.GetOrders)
	mux.HandleFunc("POST /api/games/{id}/orders", gameHandler.SubmitOrders)
	mux.HandleFunc("POST /api/games/{id}/ready", gameHandler.Ready)
	mux.HandleFunc("POST /api/games/{id}/process", gameHandler.Process)
	mux.HandleFunc("GET /api/games/{id}/history", gameHandler.History)

	// WebSocket upgrade authenticates itself via the ?token= query
	// param rather than a bearer header.
	mux.HandleFunc("GET /api/ws", wsHandler.ServeWS)

	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), auth.Middleware, middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
