package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

// WebServer serves one training match per websocket connection.
type WebServer struct {
	Router chi.Router

	cfg      *config.Config
	catalog  *presets.Catalog
	theme    gui.Theme
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	Matches map[string]*Match
}

func NewWebServer(cfg *config.Config, catalog *presets.Catalog, theme gui.Theme, log *zap.SugaredLogger) *WebServer {
	s := &WebServer{
		cfg:     cfg,
		catalog: catalog,
		theme:   theme,
		log:     log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Matches: make(map[string]*Match),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWS)
	r.Get("/presets", s.handlePresets)
	r.Get("/debug/matches", s.handleDebugMatches)
	s.Router = r
	return s
}

// ListenAndServe serves until ctx is cancelled, then closes every match.
func (s *WebServer) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.WebAddr, Handler: s.Router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.CloseAll()
	}()
	go s.CleanIdleMatches(ctx, time.Minute)

	s.log.Infow("Web server listening", "addr", s.cfg.WebAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *WebServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warnw("Upgrade failed", "error", err)
		return
	}

	p := NewPlayer(conn, s.log)
	go p.HandleWrite()
	m := NewMatch(p, MatchOptions{Config: s.cfg, Presets: s.catalog, Theme: s.theme, Log: s.log})
	s.AddMatch(m)
	defer s.RemoveMatch(m.Id)

	if err := p.HandleRead(m.Deliver); err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.log.Debugw("Connection ended", "match", m.Id, "error", err)
	}
}

func (s *WebServer) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.All())
}

type matchInfo struct {
	Id       string           `json:"id"`
	Name     string           `json:"name"`
	Idle     string           `json:"idle"`
	Snapshot trainer.Snapshot `json:"snapshot"`
}

func (s *WebServer) handleDebugMatches(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	infos := []matchInfo{}
	for _, m := range s.matches() {
		snap, err := m.Snapshot(ctx)
		if err != nil {
			continue
		}
		infos = append(infos, matchInfo{
			Id:       m.Id,
			Name:     m.Name,
			Idle:     m.IdleFor().Round(time.Second).String(),
			Snapshot: snap,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	writeJSON(w, http.StatusOK, infos)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *WebServer) AddMatch(m *Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Matches[m.Id] = m
}

// RemoveMatch closes the match and forgets it.
func (s *WebServer) RemoveMatch(id string) {
	s.mu.Lock()
	m, ok := s.Matches[id]
	delete(s.Matches, id)
	s.mu.Unlock()
	if ok {
		m.Close()
	}
}

func (s *WebServer) matches() []*Match {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*Match, 0, len(s.Matches))
	for _, m := range s.Matches {
		list = append(list, m)
	}
	return list
}

func (s *WebServer) CloseAll() {
	for _, m := range s.matches() {
		s.RemoveMatch(m.Id)
	}
}

// CleanIdleMatches closes matches whose player has been silent for longer
// than the idle timeout, checking every interval until ctx is done.
func (s *WebServer) CleanIdleMatches(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanIdle()
		}
	}
}

func (s *WebServer) cleanIdle() int {
	n := 0
	for _, m := range s.matches() {
		if m.IdleFor() > s.cfg.IdleTimeout {
			s.log.Infow("Closing idle match", "match", m.Id, "idle", m.IdleFor())
			s.RemoveMatch(m.Id)
			n++
		}
	}
	return n
}
