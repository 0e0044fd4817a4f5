package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/osvitacode/studybot/internal/bot"
	"github.com/osvitacode/studybot/internal/catalog"
	"github.com/osvitacode/studybot/internal/chat"
	"github.com/osvitacode/studybot/internal/platform/cache"
	"github.com/osvitacode/studybot/internal/platform/config"
	"github.com/osvitacode/studybot/internal/platform/database"
	"github.com/osvitacode/studybot/internal/scores"
	"github.com/osvitacode/studybot/internal/session"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func run(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready")

	sessions, cacheClient, err := newSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	if cacheClient != nil {
		defer cacheClient.Close()
	}
	slog.Info("session store ready", "backend", cfg.Session.Backend)

	cat, err := catalog.NewPostgres(db.Pool)
	if err != nil {
		return fmt.Errorf("creating catalog: %w", err)
	}
	scoreStore, err := scores.NewPostgres(db.Pool)
	if err != nil {
		return fmt.Errorf("creating score store: %w", err)
	}

	gateway := chat.NewGateway()

	telegram, err := chat.NewTelegramChannel(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("creating telegram channel: %w", err)
	}
	gateway.Register("telegram", telegram)

	var ws *chat.WebSocketChannel
	if cfg.WebSocket.Enabled {
		ws = chat.NewWebSocketChannel()
		gateway.Register("websocket", ws)
	}

	b := bot.New(bot.Config{
		Channels:     gateway,
		Sessions:     sessions,
		Catalog:      cat,
		Scores:       scoreStore,
		AdminIDs:     cfg.Admin.IDs,
		MinPassScore: cfg.Assessment.MinPassScore,
	})

	if err := gateway.StartAll(ctx, b.HandleInbound); err != nil {
		return fmt.Errorf("starting channels: %w", err)
	}
	defer func() {
		if err := gateway.StopAll(); err != nil {
			slog.Error("stopping channels", "error", err)
		}
	}()
	slog.Info("channels started", "websocket", cfg.WebSocket.Enabled)

	mux := newMux(func(ctx context.Context) error {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if cacheClient != nil {
			if err := cacheClient.HealthCheck(ctx); err != nil {
				return fmt.Errorf("cache: %w", err)
			}
		}
		return nil
	})
	if ws != nil {
		mux.Handle("/ws", ws)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newSessionStore builds the session store selected by config. The redis
// backend also returns the cache client so the caller can close it and
// include it in readiness checks.
func newSessionStore(ctx context.Context, cfg *config.Config, db *database.DB) (session.Store, *cache.Cache, error) {
	switch cfg.Session.Backend {
	case "postgres":
		store, err := session.NewPostgresStore(db.Pool)
		if err != nil {
			return nil, nil, fmt.Errorf("creating session store: %w", err)
		}
		return store, nil, nil
	case "redis":
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to cache: %w", err)
		}
		store, err := session.NewRedisStore(c.Client, cfg.Session.TTL)
		if err != nil {
			c.Close()
			return nil, nil, fmt.Errorf("creating session store: %w", err)
		}
		return store, c, nil
	case "memory":
		return session.NewMemoryStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// newMux creates the HTTP router with health check endpoints.
func newMux(ready func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz(ready))
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func handleReadyz(ready func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				slog.Warn("readiness check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"status":"unavailable","error":%q}`, err.Error())
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}
}
