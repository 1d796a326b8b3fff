// Package server provides the HTTP API over the chatbot and the store.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/maguenza/hackernews-ai-project/internal/store"
	"github.com/maguenza/hackernews-ai-project/pkg/chatbot"
)

// Server provides the HTTP API.
type Server struct {
	store store.Store
	bot   *chatbot.Chatbot
	log   *slog.Logger
	port  int
}

// New creates a new HTTP server.
func New(s store.Store, bot *chatbot.Chatbot, log *slog.Logger, port int) *Server {
	if port == 0 {
		port = 8080
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		store: s,
		bot:   bot,
		log:   log,
		port:  port,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/clear", s.handleChatClear)
	mux.HandleFunc("GET /system/info", s.handleSystemInfo)
	mux.HandleFunc("GET /suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /tools", s.handleTools)
	mux.HandleFunc("POST /tools/{name}", s.handleToolCall)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // chat turns can run several tool calls
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errc:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	dbStatus := "ok"
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = err.Error()
		code = http.StatusServiceUnavailable
	}
	chatStatus := "ok"
	if s.bot == nil {
		chatStatus = "unconfigured"
	}
	writeJSON(w, code, map[string]string{
		"status":   status,
		"database": dbStatus,
		"chatbot":  chatStatus,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chatbot not configured"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	reply, err := s.bot.Chat(r.Context(), req.Message)
	if err != nil {
		s.log.Error("chat failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"response":  reply,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chatbot not configured"})
		return
	}
	s.bot.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]string{"status": "conversation cleared"})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chatbot not configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.bot.Info())
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chatbot not configured"})
		return
	}
	suggestions := s.bot.Suggestions()
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chatbot not configured"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": s.bot.ToolDescriptions(),
		"count": len(s.bot.ToolNames()),
	})
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "chatbot not configured"})
		return
	}

	name := r.PathValue("name")
	args := make(map[string]any)
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	out, err := s.bot.DirectToolCall(r.Context(), name, args)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tool":   name,
		"result": out,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
