package games

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/drachma-games/casino/internal/engine"
	"github.com/drachma-games/casino/internal/ledger"
)

// MinesState is the round lifecycle: configuration and bets happen in
// idle, reveals and cash-out in playing.
type MinesState int

const (
	MinesIdle MinesState = iota
	MinesPlaying
)

func (s MinesState) String() string {
	if s == MinesPlaying {
		return "playing"
	}
	return "idle"
}

// MinesOutcome is the settled result of a round.
type MinesOutcome struct {
	RoundID       string  `json:"round_id"`
	Bet           int64   `json:"bet"`
	MineCount     int     `json:"mine_count"`
	Revealed      int     `json:"revealed"`
	Won           bool    `json:"won"`
	Multiplier    float64 `json:"multiplier"`
	Credit        int64   `json:"credit"`
	MinePositions []int   `json:"mine_positions"`
}

// RevealResult reports one reveal.
type RevealResult struct {
	Row             int  `json:"row"`
	Col             int  `json:"col"`
	Mine            bool `json:"mine"`
	AlreadyRevealed bool `json:"already_revealed"`
	Revealed        int  `json:"revealed"`
	RoundOver       bool `json:"round_over"`
}

// Mines runs the 5×5 hidden-mine board: configure, bet, reveal cells one
// at a time, cash out or bust.
type Mines struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	rng    RNG

	state     MinesState
	roundID   string
	bet       int64
	mineCount int
	mines     map[int]bool
	revealed  map[int]bool
	outcome   *MinesOutcome
}

// NewMines creates a board with the default 3 mines.
func NewMines(l *ledger.Ledger, rng RNG) *Mines {
	return &Mines{ledger: l, rng: rng, state: MinesIdle, bet: 10, mineCount: 3}
}

// State returns the round state.
func (m *Mines) State() MinesState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RevealedCount reports safe cells revealed so far this round.
func (m *Mines) RevealedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.revealed)
}

// Outcome returns the last settled round, or nil.
func (m *Mines) Outcome() *MinesOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcome
}

// Configure sets the mine count for the next round. At least one safe
// cell must remain, so the count is capped at 24.
func (m *Mines) Configure(mineCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MinesIdle {
		return fmt.Errorf("%w: cannot change mine count mid-round", ErrInvalidAction)
	}
	if mineCount < minesMinCount || mineCount > minesMaxCount {
		return fmt.Errorf("%w: mine count %d outside [%d, %d]", ErrConfiguration, mineCount, minesMinCount, minesMaxCount)
	}
	m.mineCount = mineCount
	return nil
}

// PlaceBet sets the wager for the next round.
func (m *Mines) PlaceBet(amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MinesIdle {
		return fmt.Errorf("%w: cannot change bet mid-round", ErrInvalidAction)
	}
	if amount < 1 {
		return fmt.Errorf("%w: minimum bet is 1", ErrInvalidBet)
	}
	m.bet = amount
	return nil
}

// StartGame debits the bet and places mines by uniform sampling without
// replacement over the 25 cells.
func (m *Mines) StartGame() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MinesIdle {
		return fmt.Errorf("%w: round already in progress", ErrInvalidAction)
	}
	if m.bet > m.ledger.Balance() {
		return fmt.Errorf("%w: bet %d exceeds balance", ErrInvalidBet, m.bet)
	}
	if err := m.ledger.Debit(m.bet, "mines:bet"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}

	positions := engine.Permutation(m.rng.NextStream(), minesTotalCells, m.mineCount)
	m.mines = make(map[int]bool, m.mineCount)
	for _, pos := range positions {
		m.mines[pos] = true
	}
	m.revealed = make(map[int]bool)
	m.roundID = uuid.NewString()
	m.outcome = nil
	m.state = MinesPlaying
	return nil
}

// Reveal uncovers one cell. Revealing an already-revealed cell is a
// no-op. A mine busts the round; clearing every safe cell wins it at the
// full-board multiplier.
func (m *Mines) Reveal(row, col int) (*RevealResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MinesPlaying {
		return nil, fmt.Errorf("%w: no round in progress", ErrInvalidAction)
	}
	if row < 0 || row >= minesGridSize || col < 0 || col >= minesGridSize {
		return nil, fmt.Errorf("%w: cell (%d, %d) outside the %dx%d grid", ErrInvalidAction, row, col, minesGridSize, minesGridSize)
	}

	cell := row*minesGridSize + col
	result := &RevealResult{Row: row, Col: col}
	if m.revealed[cell] {
		result.AlreadyRevealed = true
		result.Revealed = len(m.revealed)
		return result, nil
	}

	if m.mines[cell] {
		result.Mine = true
		result.RoundOver = true
		result.Revealed = len(m.revealed)
		m.settle(false, 0, 0)
		return result, nil
	}

	m.revealed[cell] = true
	result.Revealed = len(m.revealed)
	if len(m.revealed) == minesTotalCells-m.mineCount {
		mult, err := MinesMultiplier(m.mineCount, len(m.revealed))
		if err != nil {
			return nil, err
		}
		result.RoundOver = true
		m.settle(true, mult.InexactFloat64(), payout(m.bet, mult))
	}
	return result, nil
}

// CashOut locks in the multiplier for the current reveal count and ends
// the round as a win.
func (m *Mines) CashOut() (*MinesOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != MinesPlaying {
		return nil, fmt.Errorf("%w: no round in progress", ErrInvalidAction)
	}
	mult, err := MinesMultiplier(m.mineCount, len(m.revealed))
	if err != nil {
		return nil, err
	}
	m.settle(true, mult.InexactFloat64(), payout(m.bet, mult))
	return m.outcome, nil
}

// settle records the outcome, credits any winnings and returns to idle.
func (m *Mines) settle(won bool, multiplier float64, credit int64) {
	if credit > 0 {
		m.ledger.Credit(credit, "mines:payout")
	}
	positions := make([]int, 0, len(m.mines))
	for pos := range m.mines {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	m.outcome = &MinesOutcome{
		RoundID:       m.roundID,
		Bet:           m.bet,
		MineCount:     m.mineCount,
		Revealed:      len(m.revealed),
		Won:           won,
		Multiplier:    multiplier,
		Credit:        credit,
		MinePositions: positions,
	}
	m.mines = nil
	m.revealed = nil
	m.state = MinesIdle
}
