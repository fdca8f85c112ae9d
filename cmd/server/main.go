// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/tahcohcat/qwen-tts-web/config"
	"github.com/tahcohcat/qwen-tts-web/internal/api"
	"github.com/tahcohcat/qwen-tts-web/internal/auth"
	"github.com/tahcohcat/qwen-tts-web/internal/database"
	"github.com/tahcohcat/qwen-tts-web/internal/logger"
	"github.com/tahcohcat/qwen-tts-web/internal/metrics"
	"github.com/tahcohcat/qwen-tts-web/internal/proxy"
	"github.com/tahcohcat/qwen-tts-web/internal/services"
	"github.com/tahcohcat/qwen-tts-web/internal/tts"
	"github.com/tahcohcat/qwen-tts-web/internal/websocket"
)

func main() {
	log := logger.New().WithModule("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Error("Failed to load config")
		os.Exit(1)
	}
	logger.SetGlobalLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Error("Failed to initialize database")
		os.Exit(1)
	}
	defer db.Close()

	synth, err := tts.NewSynthesizer(ctx, cfg)
	if err != nil {
		log.WithError(err).Warn("TTS engine unavailable, falling back to sample audio")
		synth = tts.NewDummyTts()
		cfg.Tts.Type = tts.EngineTypeDummy.String()
	}
	if closer, ok := synth.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	hub := websocket.NewHub()
	go hub.Run()

	handler := api.NewHandler(api.Options{
		Synthesizer:        synth,
		Settings:           services.NewSettingsService(database.NewSettingsStore(db)),
		History:            services.NewHistoryService(db),
		Hub:                hub,
		Engine:             cfg.Tts.Type,
		FallbackCredential: cfg.DashScope.APIKey,
		DefaultVoice:       tts.Voice(cfg.Tts.DefaultVoice),
		DefaultStream:      cfg.DashScope.Stream,
	})

	gate := auth.NewGate(cfg.Auth)

	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/health", handler.Health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// API, proxy and websocket sit behind the optional password gate. The UI
	// itself is public and shows the login form when the API answers 401.
	protected := r.PathPrefix("/").Subrouter()
	protected.Use(gate.Middleware("/api/v1/login"))

	if cfg.Server.Proxy {
		if err := proxy.RegisterRoutes(protected, cfg.DashScope); err != nil {
			log.WithError(err).Error("Failed to set up the DashScope proxy")
			os.Exit(1)
		}
	}

	apiRouter := protected.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/login", gate.LoginHandler).Methods("POST")
	apiRouter.HandleFunc("/logout", gate.LogoutHandler).Methods("POST")
	api.RegisterRoutes(apiRouter, handler)

	websocket.RegisterRoutes(protected, hub)

	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.Server.StaticDir)))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Generation-Id"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info(fmt.Sprintf("Qwen TTS server starting on port %s (engine: %s)", cfg.Server.Port, synth.Name()))
	log.Info(fmt.Sprintf("Open http://localhost:%s in your browser", cfg.Server.Port))
	log.Info(fmt.Sprintf("Database: %s", cfg.Database.Path))
	if gate.Enabled() {
		log.Info("Password gate enabled")
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Failed to start server")
		os.Exit(1)
	}
}
