package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/oarkflow/mustache"
)

type Server struct {
	engine *mustache.Engine
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

func (s *Server) SetEngine(engine *mustache.Engine) {
	s.mu.Lock()
	s.engine = engine
	s.mu.Unlock()
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := strings.TrimPrefix(r.URL.Path, "/")
	if page == "" {
		page = "index"
	}

	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	if engine == nil {
		http.Error(w, "Template engine not initialized", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	data := map[string]any{
		"title":       "Mustache Auto-Reload Demo",
		"site":        map[string]any{"name": "Mustache Demo"},
		"currentTime": now.Format("2006-01-02 15:04:05"),
		"year":        now.Year(),
		"user": map[string]any{
			"name":     "Admin User",
			"loggedIn": true,
		},
		"posts": []map[string]any{
			{"title": "Getting Started with Mustache", "author": "Demo Team", "date": "2025-01-15"},
			{"title": "Template Auto-Reload Feature", "author": "Demo Team", "date": "2025-01-20"},
			{"title": "Partials and Layouts", "author": "Demo Team", "date": "2025-01-25"},
		},
	}

	html, err := engine.Render(page, data)
	if errors.Is(err, mustache.ErrTemplateNotFound) && page != "index" {
		html, err = engine.Render("index", data)
	}
	if err != nil {
		s.logger.Error("render failed", "page", page, "error", err)
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()

	status := map[string]any{
		"status":         "running",
		"engine_loaded":  engine != nil,
		"default_layout": "layout",
	}
	if engine != nil {
		status["templates"] = engine.Names()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func run(logger *slog.Logger) error {
	engine, err := mustache.NewEngine("templates", ".html",
		mustache.WithLayout("layout"),
		mustache.WithReload(200*time.Millisecond),
		mustache.WithEngineLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Close()

	server := NewServer(logger)
	server.SetEngine(engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/", server.handlePage)
	mux.HandleFunc("/status", server.handleStatus)
	srv := &http.Server{Addr: ":8080", Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server starting", "addr", srv.Addr, "templates", engine.Names())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
