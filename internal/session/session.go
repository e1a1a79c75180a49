// Package session ties one user's ledger, randomness seeds and game
// engines together. A session is the unit of play: engines never share
// state across sessions and each random decision consumes a nonce that
// only ever moves forward.
package session

import (
	"fmt"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/drachma-games/casino/internal/engine"
	"github.com/drachma-games/casino/internal/games"
	"github.com/drachma-games/casino/internal/ledger"
)

// Store is the slice of persistence the session needs: upsert the account
// balance and append an immutable history row. Failures degrade
// gracefully; the in-memory ledger stays authoritative.
type Store interface {
	SaveBalance(userID string, balance int64) error
	AppendHistory(userID string, balance int64, change string) error
}

// Session is one user's seat at the casino.
type Session struct {
	ID         string
	UserID     string
	ClientSeed string

	serverSeed string
	nonce      atomic.Uint64
	ledger     *ledger.Ledger
	logger     *log.Logger

	blackjack *games.Blackjack
	plinko    *games.Plinko
	mines     *games.Mines
}

// Config carries session creation parameters.
type Config struct {
	UserID          string
	ClientSeed      string
	StartingBalance int64
	Store           Store
	Logger          *log.Logger
}

// New creates a session with a fresh server seed and wires the three
// engines to a shared ledger.
func New(cfg Config) (*Session, error) {
	serverSeed, err := engine.NewServerSeed()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("session requires a logger")
	}
	clientSeed := cfg.ClientSeed
	if clientSeed == "" {
		clientSeed = uuid.NewString()
	}

	s := &Session{
		ID:         uuid.NewString(),
		UserID:     cfg.UserID,
		ClientSeed: clientSeed,
		serverSeed: serverSeed,
		ledger:     ledger.New(cfg.StartingBalance),
		logger:     cfg.Logger,
	}
	if cfg.Store != nil {
		store := cfg.Store
		userID := cfg.UserID
		logger := cfg.Logger
		s.ledger.SetSink(func(balance int64, change string) {
			if err := store.SaveBalance(userID, balance); err != nil {
				logger.Printf("save balance failed user=%s: %v", userID, err)
			}
			if err := store.AppendHistory(userID, balance, change); err != nil {
				logger.Printf("append history failed user=%s: %v", userID, err)
			}
		})
	}

	s.blackjack = games.NewBlackjack(s.ledger, s)
	s.plinko = games.NewPlinko(s.ledger, s, cfg.Logger)
	s.mines = games.NewMines(s.ledger, s)
	return s, nil
}

// NextStream implements games.RNG: each call claims the next nonce and
// returns a fresh float stream for one round or ball.
func (s *Session) NextStream() *engine.Stream {
	nonce := s.nonce.Add(1)
	return engine.NewStream(s.serverSeed, s.ClientSeed, nonce, 0)
}

// ServerSeedHash discloses the seed commitment without the seed itself.
func (s *Session) ServerSeedHash() string {
	return engine.HashServerSeed(s.serverSeed)
}

// Nonce reports how many streams have been handed out.
func (s *Session) Nonce() uint64 {
	return s.nonce.Load()
}

// Ledger exposes the shared balance ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Blackjack returns the session's blackjack table.
func (s *Session) Blackjack() *games.Blackjack {
	return s.blackjack
}

// Plinko returns the session's plinko board.
func (s *Session) Plinko() *games.Plinko {
	return s.plinko
}

// Mines returns the session's mines board.
func (s *Session) Mines() *games.Mines {
	return s.mines
}

// SignOut tears the session down: any running plinko auto loop stops and
// the balance resets to zero.
func (s *Session) SignOut() {
	s.plinko.SetAutoMode(false)
	s.ledger.Reset()
}
