// Package http exposes pages over HTTP: the WebSocket endpoint clients
// render from, read-only inspection routes, metrics and the MCP mount.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/threeview"
	"github.com/aretw0/threeview/internal/logging"
	"github.com/aretw0/threeview/internal/presentation/graph"
	"github.com/aretw0/threeview/pkg/adapters/websocket"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/ports"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/go-chi/chi/v5"
	gws "github.com/gorilla/websocket"
)

// Pages resolves page views. *page.Manager implements it.
type Pages interface {
	Acquire(ctx context.Context, pageID string) (*scene.View, func(), error)
	Get(pageID string) (*scene.View, error)
	Pages() []string
}

// Hub accepts WebSocket connections. *websocket.Hub implements it.
type Hub interface {
	Serve(w http.ResponseWriter, r *http.Request, pageID string, sink websocket.EventSink) error
	Count(pageID string) int
}

// Config wires the handler. Pages and Hub are required.
type Config struct {
	Pages    Pages
	Hub      Hub
	Presence ports.PresenceTracker
	Metrics  http.Handler
	MCP      http.Handler
	Logger   *slog.Logger
}

// Server holds the route handlers.
type Server struct {
	pages    Pages
	hub      Hub
	presence ports.PresenceTracker
	logger   *slog.Logger
}

// PageInfo is one entry of GET /pages.
type PageInfo struct {
	ID          string `json:"id"`
	Objects     int    `json:"objects"`
	Connections int    `json:"connections"`
	Cluster     *int   `json:"cluster_connections,omitempty"`
}

// NewHandler builds the router.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		pages:    cfg.Pages,
		hub:      cfg.Hub,
		presence: cfg.Presence,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/pages", s.ListPages)
	r.Route("/pages/{pageID}", func(r chi.Router) {
		r.Get("/ws", s.Connect)
		r.Get("/objects", s.GetObjects)
		r.Get("/graph", s.GetGraph)
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.MCP != nil {
		r.Mount("/mcp", cfg.MCP)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]any{
		"app":     "threeview",
		"version": strings.TrimSpace(threeview.Version),
		"shapes":  domain.ShapeTypes(),
	})
}

// ListPages handles GET /pages.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	ids := s.pages.Pages()
	out := make([]PageInfo, 0, len(ids))
	for _, id := range ids {
		info := PageInfo{ID: id, Connections: s.hub.Count(id)}
		if view, err := s.pages.Get(id); err == nil {
			info.Objects = len(view.Objects())
		}
		if s.presence != nil {
			n, err := s.presence.Count(r.Context(), id)
			if err != nil {
				s.logger.Warn("Presence count failed", "page_id", id, "err", err)
			} else {
				info.Cluster = &n
			}
		}
		out = append(out, info)
	}
	writeJSON(w, s.logger, out)
}

// Connect handles GET /pages/{pageID}/ws. The page is built on first visit
// and closed when its last connection goes away.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "pageID")
	if !gws.IsWebSocketUpgrade(r) {
		http.Error(w, "WebSocket upgrade required", http.StatusBadRequest)
		return
	}

	view, release, err := s.pages.Acquire(r.Context(), pageID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Open page error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Open page failed", "page_id", pageID, "err", err)
		return
	}
	defer release()

	if err := s.hub.Serve(w, r, pageID, view); err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Warn("WebSocket connect failed", "page_id", pageID, "err", err)
	}
}

// GetObjects handles GET /pages/{pageID}/objects.
func (s *Server) GetObjects(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.logger, view.Snapshot())
}

// GetGraph handles GET /pages/{pageID}/graph. The highlight query parameter
// (comma separated object ids) marks objects on the chart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	var overlay *graph.Overlay
	if h := r.URL.Query().Get("highlight"); h != "" {
		overlay = &graph.Overlay{Highlight: strings.Split(h, ",")}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, graph.GenerateMermaid(view.Snapshot(), overlay))
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) (*scene.View, bool) {
	pageID := chi.URLParam(r, "pageID")
	view, err := s.pages.Get(pageID)
	if errors.Is(err, domain.ErrPageNotFound) {
		http.Error(w, fmt.Sprintf("Page %q not found", pageID), http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Page error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Page lookup failed", "page_id", pageID, "err", err)
		return nil, false
	}
	return view, true
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
