package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/dockwise"
	"github.com/aretw0/dockwise/internal/presentation/graph"
	"github.com/aretw0/dockwise/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Inspector exposes the assembled flows of an engine.
type Inspector interface {
	Tree() *domain.DialogNode
	Global() []domain.StackEntry
}

// Server serves read-only flow inspection and live lifecycle events.
type Server struct {
	Inspector Inspector
	Streams   *StreamManager
	Logger    *slog.Logger
}

// NewServer creates a server over insp. Events reach subscribers once
// streams.Hooks() is installed on the engine.
func NewServer(insp Inspector, streams *StreamManager, logger *slog.Logger) *Server {
	if streams == nil {
		streams = NewStreamManager(logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Inspector: insp, Streams: streams, Logger: logger}
}

// NewHandler returns a standalone handler with all routes mounted.
func NewHandler(s *Server) http.Handler {
	r := chi.NewRouter()
	s.Routes(r)
	return r
}

// Routes mounts the inspection API on r.
func (s *Server) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(enableCORS)
		r.Get("/info", s.GetInfo)
		r.Get("/flow", s.GetFlow)
		r.Get("/flow/global", s.GetGlobal)
		r.Get("/flow/graph", s.GetGraph)
		r.Get("/events", s.SubscribeEvents)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "dockwise",
		"version": strings.TrimSpace(dockwise.Version),
	})
}

// GetFlow handles GET /flow, returning the assembled dialog tree.
func (s *Server) GetFlow(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, s.Inspector.Tree())
}

// GetGlobal handles GET /flow/global.
func (s *Server) GetGlobal(w http.ResponseWriter, _ *http.Request) {
	global := s.Inspector.Global()
	if global == nil {
		global = []domain.StackEntry{}
	}
	s.writeJSON(w, global)
}

// GetGraph handles GET /flow/graph. The optional position query parameter
// highlights a dialog.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if pos := r.URL.Query().Get("position"); pos != "" {
		overlay = &graph.GraphOverlay{Position: pos}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, graph.GenerateMermaid(s.Inspector.Tree(), s.Inspector.Global(), overlay))
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

// AllSessions subscribes to events of every session.
const AllSessions = "*"

// StreamManager fans lifecycle events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for sessionID (or AllSessions). The returned
// func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of channels listening for sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends msg to the subscribers of sessionID and of AllSessions.
// Slow subscribers lose messages instead of blocking the conversation.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{sessionID, AllSessions} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				sm.logger.Warn("sse client buffer full, dropping event", "session_id", sessionID)
			}
		}
	}
}

// Hooks returns lifecycle hooks that broadcast every event as JSON.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	entry := func(_ context.Context, ev *domain.EntryEvent) {
		sm.publish(ev.SessionID, ev)
	}
	handler := func(_ context.Context, ev *domain.HandlerEvent) {
		sm.publish(ev.SessionID, ev)
	}
	return domain.LifecycleHooks{
		OnEntryMatched:  entry,
		OnReposition:    entry,
		OnMismatch:      entry,
		OnHandlerCall:   handler,
		OnHandlerReturn: handler,
	}
}

func (sm *StreamManager) publish(sessionID string, ev any) {
	b, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("event encode failed", "err", err)
		return
	}
	sm.Broadcast(sessionID, string(b))
}

// SubscribeEvents handles GET /events (SSE). The optional session_id query
// parameter restricts the stream to one conversation.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = AllSessions
	}

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.Logger.Debug("sse client subscribed", "session_id", sessionID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("sse client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
