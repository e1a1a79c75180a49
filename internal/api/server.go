// Package api exposes every engine operation over HTTP. Each session is
// an in-memory seat keyed by id; the store persists balances across
// sessions and serves the leaderboard and history queries.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/drachma-games/casino/internal/session"
	"github.com/drachma-games/casino/internal/store"
)

// Server handles HTTP requests.
type Server struct {
	db              store.DB
	logger          *log.Logger
	startingBalance int64
	leaderboardSize int
	startTime       time.Time

	mu       sync.RWMutex
	sessions map[string]*session.Session
}

// Options tunes server behavior.
type Options struct {
	StartingBalance int64
	LeaderboardSize int
}

// NewServer creates a new API server.
func NewServer(db store.DB, opts Options) *Server {
	if opts.LeaderboardSize <= 0 {
		opts.LeaderboardSize = 10
	}
	return &Server{
		db:              db,
		logger:          log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile),
		startingBalance: opts.StartingBalance,
		leaderboardSize: opts.LeaderboardSize,
		startTime:       time.Now(),
		sessions:        make(map[string]*session.Session),
	}
}

// Routes sets up the HTTP routes with proper middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleSignOut)
			r.Get("/wallet", s.handleGetWallet)
			r.Put("/wallet", s.handleSetWallet)

			r.Route("/blackjack", func(r chi.Router) {
				r.Get("/", s.handleBlackjackState)
				r.Post("/bet", s.handleBlackjackBet)
				r.Post("/deal", s.handleBlackjackDeal)
				r.Post("/hit", s.handleBlackjackHit)
				r.Post("/stand", s.handleBlackjackStand)
				r.Post("/split", s.handleBlackjackSplit)
			})

			r.Route("/plinko", func(r chi.Router) {
				r.Get("/", s.handlePlinkoState)
				r.Post("/bet", s.handlePlinkoBet)
				r.Post("/drop", s.handlePlinkoDrop)
				r.Post("/auto/start", s.handlePlinkoAutoStart)
				r.Post("/auto/stop", s.handlePlinkoAutoStop)
			})

			r.Route("/mines", func(r chi.Router) {
				r.Get("/", s.handleMinesState)
				r.Post("/configure", s.handleMinesConfigure)
				r.Post("/bet", s.handleMinesBet)
				r.Post("/start", s.handleMinesStart)
				r.Post("/reveal", s.handleMinesReveal)
				r.Post("/cashout", s.handleMinesCashOut)
			})
		})

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/users/{userID}/history", s.handleHistory)
	})

	return r
}

// writeJSON writes a JSON response with proper headers.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// getSession looks up the session or writes a 404.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id := chi.URLParam(r, "sessionID")
	s.mu.RLock()
	sess := s.sessions[id]
	s.mu.RUnlock()
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "session_not_found", "no such session", nil)
		return nil
	}
	return sess
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	active := len(s.sessions)
	s.mu.RUnlock()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"uptime_seconds":  int(time.Since(s.startTime).Seconds()),
		"active_sessions": active,
	})
}
