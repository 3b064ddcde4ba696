package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anirpro14/tidykitty/internal/database"
	"github.com/anirpro14/tidykitty/internal/logging"
	"github.com/anirpro14/tidykitty/internal/server"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := logging.Setup(getenv("TIDYKITTY_LOG_LEVEL", "info"), getenv("TIDYKITTY_LOG_FORMAT", "text"))

	port := getenv("TIDYKITTY_PORT", "8080")
	dbPath := getenv("TIDYKITTY_DB_PATH", "tidykitty.db")

	loc := time.Local
	if tz := os.Getenv("TIDYKITTY_TIMEZONE"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			slog.Error("invalid timezone", "timezone", tz, "error", err)
			os.Exit(1)
		}
		loc = l
	}

	ttl, err := time.ParseDuration(getenv("TIDYKITTY_SESSION_TTL", "720h"))
	if err != nil || ttl <= 0 {
		slog.Error("invalid session ttl", "value", os.Getenv("TIDYKITTY_SESSION_TTL"), "error", err)
		os.Exit(1)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	srv := server.New(db, server.Config{SessionTTL: ttl, Location: loc}, logger)

	// WriteTimeout stays zero so WebSocket feeds are not cut off.
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := srv.Sessions().Cleanup(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("tidykitty starting", "addr", ":"+port, "db", dbPath, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
