package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrewpaige1/problempad/cache"
	"github.com/andrewpaige1/problempad/config"
	"github.com/andrewpaige1/problempad/handlers"
	"github.com/andrewpaige1/problempad/logger"
	"github.com/andrewpaige1/problempad/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	env := config.LoadEnvironment()

	appLog, err := logger.New(logger.Config{Level: env.LogLevel, Format: env.LogFormat})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer appLog.Sync()

	db, err := config.Connect(env)
	if err != nil {
		appLog.Fatal("failed to open problem store", zap.String("driver", env.DBDriver), zap.Error(err))
	}

	DBHandler := &handlers.DBHandler{DB: db, Log: appLog}
	if env.RedisAddr != "" {
		counts, err := cache.NewRedisCountCache(env.RedisAddr, env.CountCacheTTL)
		if err != nil {
			appLog.Warn("count cache disabled", zap.String("addr", env.RedisAddr), zap.Error(err))
		} else {
			defer counts.Close()
			DBHandler.Counts = counts
		}
	}

	mux := DBHandler.Routes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: env.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "Accept", "Origin"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         86400,
	}).Handler(mux)

	handler := middleware.RequestLogger(appLog)(middleware.Recover(appLog)(corsHandler))

	server := &http.Server{
		Addr:              "0.0.0.0:" + env.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, server, appLog); err != nil {
		// Returning instead of exiting lets the deferred cleanup run.
		appLog.Error("server stopped", zap.Error(err))
	}
}

// serve runs server until ctx is done, then shuts it down. A listener
// failure is returned instead of ending the process.
func serve(ctx context.Context, server *http.Server, appLog *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("problem API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
