package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drawboard/internal/api"
	"drawboard/internal/board"
	"drawboard/internal/config"
	"drawboard/internal/db"
	"drawboard/internal/hub"
	"drawboard/internal/identity"
	"drawboard/internal/telemetry"
)

func main() {
	log.Println("🚀 Starting Drawboard server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Initialize Jaeger tracing first so everything downstream is traced.
	jaegerShutdown, err := telemetry.InitJaeger("drawboard", cfg.JaegerEndpoint)
	if err != nil {
		log.Printf("⚠️  Failed to initialize Jaeger: %v (continuing without tracing)", err)
		jaegerShutdown = func(ctx context.Context) error { return nil }
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := jaegerShutdown(ctx); err != nil {
			log.Printf("⚠️  Failed to shutdown Jaeger: %v", err)
		}
	}()

	// User accounts live in Postgres; the canvas itself is in-memory and
	// lives only as long as the process.
	database, err := db.NewGorm(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Identity service: registration, login and the websocket token gate.
	identitySvc := identity.NewService(
		identity.NewGormUserStore(database.DB),
		cfg.JWTSecret,
		cfg.TokenTTL,
	)

	// The whiteboard core: authoritative state behind a single event loop.
	whiteboard := board.New()
	sessionHub := hub.New(whiteboard, cfg.SendBufferSize)
	sessionHub.Start()

	wsHandler := hub.NewHandler(sessionHub, identitySvc)

	handler := api.NewHandler(identitySvc)
	router := api.SetupRoutes(handler, wsHandler.ServeWS, cfg.StaticDir)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
		// No blanket write timeout: long-lived websocket connections manage
		// their own deadlines in the pumps.
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://%s", addr)
		log.Printf("📚 Endpoints:")
		log.Printf("   POST /api/auth/register - Create account")
		log.Printf("   POST /api/auth/login    - Log in")
		log.Printf("   GET  /api/health        - Health check")
		log.Printf("   GET  /ws?token=...      - Whiteboard session")
		log.Println()

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	sessionHub.Shutdown()

	log.Println("✓ Server shutdown complete")
}
