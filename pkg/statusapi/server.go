// Package statusapi exposes the small HTTP/WS status-and-control
// surface from SPEC_FULL.md §6: health, stats snapshot, pairing
// issuance/redemption, and a WebSocket event feed for a local UI.
// Grounded on moonlight/handlers.go's gorilla/mux router registration
// style and ws_stream.go's gorilla/websocket connection handling.
package statusapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bsod90/screenhero-sub001/pkg/pairing"
	"github.com/bsod90/screenhero-sub001/pkg/stats"
)

// Event is a small JSON control event pushed to connected UI clients
// over /ws/events. This package broadcasts only "pairingSucceeded"
// events, after a successful /pair/redeem.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the host-side status/control HTTP surface.
type Server struct {
	stats   *stats.SessionStats
	pairMgr *pairing.Manager
	logger  zerolog.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer constructs a Server backed by the given stats and pairing
// manager.
func NewServer(s *stats.SessionStats, pairMgr *pairing.Manager) *Server {
	return &Server{
		stats:   s,
		pairMgr: pairMgr,
		logger:  log.With().Str("component", "statusapi").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Router builds the gorilla/mux router for this server's routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/pair", s.handlePair).Methods(http.MethodPost)
	r.HandleFunc("/pair/redeem", s.handlePairRedeem).Methods(http.MethodPost)
	r.HandleFunc("/ws/events", s.handleWSEvents).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.stats.Snapshot())
}

type pairRequest struct {
	TTLSeconds int `json:"ttlSeconds"`
}

type pairResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	ttl := time.Duration(req.TTLSeconds) * time.Second
	code, err := s.pairMgr.NewCode(ttl)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pairResponse{Code: code.Value, ExpiresAt: code.ExpiresAt})
}

type redeemRequest struct {
	Code     string `json:"code"`
	ViewerID string `json:"viewerId"`
}

func (s *Server) handlePairRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	token, err := s.pairMgr.Redeem(req.Code, req.ViewerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	s.Broadcast(Event{Type: "pairingSucceeded", Data: map[string]string{"viewerId": req.ViewerID}})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(token)
}

func (s *Server) handleWSEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard any client->server traffic until disconnect;
	// this endpoint is push-only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes ev as JSON to every connected /ws/events client.
func (s *Server) Broadcast(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		if err := conn.WriteJSON(ev); err != nil {
			s.logger.Debug().Err(err).Msg("dropping ws client after write error")
			conn.Close()
			delete(s.clients, conn)
		}
	}
}
