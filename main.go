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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/leiyu1203/chatgate/api"
	"github.com/leiyu1203/chatgate/config"
	"github.com/leiyu1203/chatgate/llm"
	"github.com/leiyu1203/chatgate/metrics"
	"github.com/leiyu1203/chatgate/policy"
	"github.com/leiyu1203/chatgate/ratelimit"
	"github.com/leiyu1203/chatgate/service"
	"github.com/leiyu1203/chatgate/session"
	"github.com/leiyu1203/chatgate/store"
	"github.com/leiyu1203/chatgate/tools"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting chat gateway...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Upstream URL: %s", cfg.UpstreamURL)
	log.Printf("Default model: %s", cfg.DefaultModel)

	// Initialize audit store
	auditStore, err := store.NewSQLiteStore(cfg.AuditDSN)
	if err != nil {
		log.Fatalf("Failed to initialize audit store: %v", err)
	}
	defer auditStore.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize upstream client
	llmClient := llm.NewCompletionClient(cfg.UpstreamURL, cfg.UpstreamAPIKey, cfg.BufferedTimeout, cfg.StreamTimeout, cfg.UpstreamRPS)

	// Initialize session store and service
	sessions := session.NewStore(cfg.MaxSessionTurns, cfg.SessionTTL)
	svc := service.New(sessions, tools.NewDefaultRegistry(), policyEngine, llmClient, auditStore, cfg)

	// Initialize handler
	limiter := ratelimit.NewLimiter(cfg.RateLimitWindow, cfg.RateLimitMax)
	h := api.NewHandler(svc, limiter, cfg)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(e)

	// Background sweeper for expired sessions and stale limiter windows
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				if swept := sessions.Sweep(now); swept > 0 {
					metrics.SessionsSwept.Add(float64(swept))
					log.Printf("Swept %d expired sessions", swept)
				}
				limiter.Sweep(now)
			case <-sweepDone:
				return
			}
		}
	}()

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Gateway started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gateway...")
	close(sweepDone)

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Gateway stopped")
}
