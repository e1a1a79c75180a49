package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/drachma-games/casino/internal/games"
	"github.com/drachma-games/casino/internal/session"
)

type createSessionRequest struct {
	UserID     string `json:"user_id"`
	ClientSeed string `json:"client_seed"`
}

type sessionResponse struct {
	SessionID      string `json:"session_id"`
	UserID         string `json:"user_id"`
	Balance        int64  `json:"balance"`
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`
}

func (s *Server) sessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{
		SessionID:      sess.ID,
		UserID:         sess.UserID,
		Balance:        sess.Ledger().Balance(),
		ServerSeedHash: sess.ServerSeedHash(),
		ClientSeed:     sess.ClientSeed,
		Nonce:          sess.Nonce(),
	}
}

// handleCreateSession opens a seat. The persisted balance is loaded when
// an account record exists; otherwise the configured starting stake
// applies. Persistence failures only cost durability, never the session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if req.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "bad_request", "user_id is required", nil)
		return
	}

	balance := s.startingBalance
	if s.db != nil {
		if persisted, found, err := s.db.GetBalance(req.UserID); err != nil {
			s.logger.Printf("load balance failed user=%s: %v", req.UserID, err)
		} else if found {
			balance = persisted
		}
	}

	sess, err := session.New(session.Config{
		UserID:          req.UserID,
		ClientSeed:      req.ClientSeed,
		StartingBalance: balance,
		Store:           s.db,
		Logger:          s.logger,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Printf("session created id=%s user=%s balance=%d", sess.ID, sess.UserID, balance)
	s.writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

// handleSignOut tears the session down and zeroes its balance.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	sess.SignOut()
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"balance": sess.Ledger().Balance()})
}

type setWalletRequest struct {
	Balance int64 `json:"balance"`
}

func (s *Server) handleSetWallet(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	var req setWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if err := sess.Ledger().Set(req.Balance, "set"); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"balance": sess.Ledger().Balance()})
}

// --- blackjack ---

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type blackjackResponse struct {
	State      string                  `json:"state"`
	Bet        int64                   `json:"bet"`
	Hands      [][]games.Card          `json:"hands"`
	DealerHand []games.Card            `json:"dealer_hand"`
	ActiveHand int                     `json:"active_hand"`
	CanSplit   bool                    `json:"can_split"`
	Balance    int64                   `json:"balance"`
	Outcome    *games.BlackjackOutcome `json:"outcome,omitempty"`
}

func (s *Server) blackjackResponse(sess *session.Session) blackjackResponse {
	bj := sess.Blackjack()
	resp := blackjackResponse{
		State:      bj.State().String(),
		Bet:        bj.Bet(),
		Hands:      bj.PlayerHands(),
		ActiveHand: bj.ActiveHand(),
		CanSplit:   bj.CanSplit(),
		Balance:    sess.Ledger().Balance(),
		Outcome:    bj.Outcome(),
	}
	dealer := bj.DealerHand()
	if bj.State() == games.BlackjackPlayerTurn || bj.State() == games.BlackjackSplitTurn {
		// The dealer's second card stays face-down until the player is done.
		if len(dealer) > 1 {
			dealer = dealer[:1]
		}
	}
	resp.DealerHand = dealer
	return resp
}

func (s *Server) handleBlackjackState(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, s.blackjackResponse(sess))
}

func (s *Server) handleBlackjackBet(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if err := sess.Blackjack().PlaceBet(req.Amount); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.blackjackResponse(sess))
}

func (s *Server) handleBlackjackDeal(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Blackjack().Deal(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.blackjackResponse(sess))
}

func (s *Server) handleBlackjackHit(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Blackjack().Hit(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.blackjackResponse(sess))
}

func (s *Server) handleBlackjackStand(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Blackjack().Stand(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.blackjackResponse(sess))
}

func (s *Server) handleBlackjackSplit(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Blackjack().Split(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.blackjackResponse(sess))
}

// --- plinko ---

type plinkoResponse struct {
	Bet         int64     `json:"bet"`
	AutoState   string    `json:"auto_state"`
	InFlight    int       `json:"in_flight"`
	Accumulated int64     `json:"accumulated"`
	Balance     int64     `json:"balance"`
	Payouts     []float64 `json:"payouts"`
}

func (s *Server) plinkoResponse(sess *session.Session) plinkoResponse {
	p := sess.Plinko()
	return plinkoResponse{
		Bet:         p.Bet(),
		AutoState:   p.AutoState().String(),
		InFlight:    p.InFlight(),
		Accumulated: p.Accumulated(),
		Balance:     sess.Ledger().Balance(),
		Payouts:     games.PlinkoPayouts(),
	}
}

func (s *Server) handlePlinkoState(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, s.plinkoResponse(sess))
}

func (s *Server) handlePlinkoBet(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if err := sess.Plinko().SetBet(req.Amount); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.plinkoResponse(sess))
}

// handlePlinkoDrop drops and settles one ball. Over HTTP there is no
// animation to wait for, so the ball lands in the same request.
func (s *Server) handlePlinkoDrop(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	ball, err := sess.Plinko().DropBall()
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	if err := sess.Plinko().Land(ball.ID); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"ball":    ball,
		"balance": sess.Ledger().Balance(),
	})
}

func (s *Server) handlePlinkoAutoStart(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	sess.Plinko().SetAutoMode(true)
	if err := sess.Plinko().StartAuto(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.plinkoResponse(sess))
}

func (s *Server) handlePlinkoAutoStop(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Plinko().StopAuto(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	sess.Plinko().SetAutoMode(false)
	s.writeJSON(w, http.StatusOK, s.plinkoResponse(sess))
}

// --- mines ---

type minesResponse struct {
	State    string              `json:"state"`
	Revealed int                 `json:"revealed"`
	Balance  int64               `json:"balance"`
	Outcome  *games.MinesOutcome `json:"outcome,omitempty"`
}

func (s *Server) minesResponse(sess *session.Session) minesResponse {
	m := sess.Mines()
	return minesResponse{
		State:    m.State().String(),
		Revealed: m.RevealedCount(),
		Balance:  sess.Ledger().Balance(),
		Outcome:  m.Outcome(),
	}
}

func (s *Server) handleMinesState(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	s.writeJSON(w, http.StatusOK, s.minesResponse(sess))
}

type minesConfigureRequest struct {
	MineCount int `json:"mine_count"`
}

func (s *Server) handleMinesConfigure(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	var req minesConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if err := sess.Mines().Configure(req.MineCount); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.minesResponse(sess))
}

func (s *Server) handleMinesBet(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	if err := sess.Mines().PlaceBet(req.Amount); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.minesResponse(sess))
}

func (s *Server) handleMinesStart(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Mines().StartGame(); err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.minesResponse(sess))
}

type minesRevealRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s *Server) handleMinesReveal(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	var req minesRevealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body", nil)
		return
	}
	result, err := sess.Mines().Reveal(req.Row, req.Col)
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"reveal":  result,
		"state":   sess.Mines().State().String(),
		"balance": sess.Ledger().Balance(),
		"outcome": sess.Mines().Outcome(),
	})
}

func (s *Server) handleMinesCashOut(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	outcome, err := sess.Mines().CashOut()
	if err != nil {
		s.writeGameError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"balance": sess.Ledger().Balance(),
	})
}

// --- queries ---

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_store", "persistence is disabled", nil)
		return
	}
	rows, err := s.db.Leaderboard(s.leaderboardSize)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": rows})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no_store", "persistence is disabled", nil)
		return
	}
	userID := chi.URLParam(r, "userID")
	rows, err := s.db.History(userID, 50)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"history": rows})
}
