package games

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/drachma-games/casino/internal/ledger"
)

func newTestMines(balance int64, seed string) (*Mines, *ledger.Ledger) {
	l := testLedger(balance)
	return NewMines(l, newSeedRNG(seed)), l
}

func TestMinesConfigure(t *testing.T) {
	m, _ := newTestMines(100, "cfg_seed")

	for _, count := range []int{0, -1, 25, 26} {
		if err := m.Configure(count); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Configure(%d): got %v, want ErrConfiguration", count, err)
		}
	}
	for _, count := range []int{1, 3, 24} {
		if err := m.Configure(count); err != nil {
			t.Errorf("Configure(%d): %v", count, err)
		}
	}

	if err := m.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if err := m.Configure(5); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Configure mid-round: got %v, want ErrInvalidAction", err)
	}
	if err := m.PlaceBet(20); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("PlaceBet mid-round: got %v, want ErrInvalidAction", err)
	}
	if err := m.StartGame(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("StartGame mid-round: got %v, want ErrInvalidAction", err)
	}
}

func TestMinesPlaceBet(t *testing.T) {
	m, _ := newTestMines(100, "bet_seed")
	if err := m.PlaceBet(0); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("bet 0: got %v, want ErrInvalidBet", err)
	}
	if err := m.PlaceBet(50); err != nil {
		t.Errorf("PlaceBet(50): %v", err)
	}

	// The bet is only checked against the balance at round start.
	if err := m.PlaceBet(500); err != nil {
		t.Fatalf("PlaceBet(500): %v", err)
	}
	if err := m.StartGame(); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("StartGame over balance: got %v, want ErrInvalidBet", err)
	}
}

func TestMinesImmediateCashOut(t *testing.T) {
	m, l := newTestMines(100, "cashout_seed")
	if err := m.PlaceBet(40); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if err := m.Configure(5); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := m.StartGame(); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if got := l.Balance(); got != 60 {
		t.Fatalf("balance after start = %d, want 60", got)
	}

	// Multiplier at zero reveals is 1.0: the stake comes straight back.
	out, err := m.CashOut()
	if err != nil {
		t.Fatalf("CashOut: %v", err)
	}
	if !out.Won || out.Credit != 40 || out.Multiplier != 1.0 {
		t.Errorf("outcome %+v, want won with credit 40 at 1.0x", out)
	}
	if got := l.Balance(); got != 100 {
		t.Errorf("balance after cash-out = %d, want 100", got)
	}
	if len(out.MinePositions) != 5 {
		t.Errorf("%d mine positions disclosed, want 5", len(out.MinePositions))
	}
	for i, pos := range out.MinePositions {
		if pos < 0 || pos >= 25 {
			t.Errorf("mine position %d out of range", pos)
		}
		if i > 0 && pos <= out.MinePositions[i-1] {
			t.Errorf("mine positions not strictly sorted: %v", out.MinePositions)
		}
	}

	if _, err := m.CashOut(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("CashOut while idle: got %v, want ErrInvalidAction", err)
	}
}

func TestMinesRevealLifecycle(t *testing.T) {
	m, l := newTestMines(1_000_000, "reveal_seed")
	if err := m.Configure(3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := m.PlaceBet(10); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}

	busts, wins := 0, 0
	for round := 0; round < 50; round++ {
		before := l.Balance()
		if err := m.StartGame(); err != nil {
			t.Fatalf("round %d: StartGame: %v", round, err)
		}

		// Sweep the grid until the round ends.
		over := false
		for cell := 0; cell < 25 && !over; cell++ {
			res, err := m.Reveal(cell/5, cell%5)
			if err != nil {
				t.Fatalf("round %d: Reveal(%d): %v", round, cell, err)
			}
			over = res.RoundOver
		}
		if !over {
			t.Fatalf("round %d: sweep ended with round still open", round)
		}

		out := m.Outcome()
		if out == nil {
			t.Fatalf("round %d: no outcome", round)
		}
		if out.Won {
			wins++
			if out.Revealed != 22 {
				t.Errorf("round %d: won with %d reveals, want 22", round, out.Revealed)
			}
			mult, err := MinesMultiplier(3, 22)
			if err != nil {
				t.Fatalf("round %d: %v", round, err)
			}
			if want := payout(10, mult); out.Credit != want {
				t.Errorf("round %d: full-clear credit %d, want %d", round, out.Credit, want)
			}
		} else {
			busts++
			if out.Credit != 0 {
				t.Errorf("round %d: bust with credit %d", round, out.Credit)
			}
		}
		if got := l.Balance(); got != before-10+out.Credit {
			t.Fatalf("round %d: balance %d, want %d - 10 + %d", round, got, before, out.Credit)
		}
		if m.State() != MinesIdle {
			t.Fatalf("round %d: state %s after settlement", round, m.State())
		}
	}

	// With 3 mines ahead of a full sweep, busts dominate overwhelmingly.
	if busts == 0 {
		t.Error("50 swept rounds never hit a mine")
	}
	_ = wins
}

func TestMinesRevealIdempotent(t *testing.T) {
	m, _ := newTestMines(1000, "idem_seed")
	if err := m.Configure(1); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	// Retry rounds until the first reveal is safe; with one mine on 25
	// cells nearly every round qualifies.
	for attempt := 0; attempt < 20; attempt++ {
		if err := m.StartGame(); err != nil {
			t.Fatalf("StartGame: %v", err)
		}
		res, err := m.Reveal(0, 0)
		if err != nil {
			t.Fatalf("Reveal: %v", err)
		}
		if res.Mine {
			continue
		}
		if res.Revealed != 1 {
			t.Fatalf("first reveal count = %d, want 1", res.Revealed)
		}

		again, err := m.Reveal(0, 0)
		if err != nil {
			t.Fatalf("repeat Reveal: %v", err)
		}
		if !again.AlreadyRevealed || again.Revealed != 1 || again.RoundOver {
			t.Errorf("repeat reveal = %+v, want already-revealed no-op", again)
		}

		if _, err := m.Reveal(5, 0); !errors.Is(err, ErrInvalidAction) {
			t.Errorf("out-of-grid reveal: got %v, want ErrInvalidAction", err)
		}

		if _, err := m.CashOut(); err != nil {
			t.Fatalf("CashOut: %v", err)
		}
		return
	}
	t.Fatal("no safe first reveal in 20 rounds with a single mine")
}

func TestMinesMultiplierTable(t *testing.T) {
	tests := []struct {
		mines    int
		revealed int
		want     string
	}{
		{3, 0, "1"},
		{3, 1, "1.125"},
		{3, 2, "1.2857"},
		{24, 1, "24.75"},
	}
	for _, tt := range tests {
		got, err := MinesMultiplier(tt.mines, tt.revealed)
		if err != nil {
			t.Fatalf("MinesMultiplier(%d, %d): %v", tt.mines, tt.revealed, err)
		}
		if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
			t.Errorf("MinesMultiplier(%d, %d) = %s, want %s", tt.mines, tt.revealed, got, want)
		}
	}

	// Each safe reveal strictly raises the multiplier.
	for m := 1; m <= 24; m++ {
		prev := decimal.Zero
		for k := 0; k <= 25-m; k++ {
			mult, err := MinesMultiplier(m, k)
			if err != nil {
				t.Fatalf("MinesMultiplier(%d, %d): %v", m, k, err)
			}
			if mult.LessThanOrEqual(prev) && k > 0 {
				t.Errorf("multiplier not increasing at m=%d k=%d: %s <= %s", m, k, mult, prev)
			}
			prev = mult
		}
	}

	if _, err := MinesMultiplier(0, 0); !errors.Is(err, ErrConfiguration) {
		t.Errorf("mine count 0: got %v, want ErrConfiguration", err)
	}
	if _, err := MinesMultiplier(3, 23); !errors.Is(err, ErrConfiguration) {
		t.Errorf("23 reveals with 3 mines: got %v, want ErrConfiguration", err)
	}
}

func TestMinesPayoutFloor(t *testing.T) {
	mult, err := MinesMultiplier(3, 1)
	if err != nil {
		t.Fatalf("MinesMultiplier: %v", err)
	}
	// 1.125x: 8 pays 9 exactly, 7 floors 7.875 down to 7.
	if got := payout(8, mult); got != 9 {
		t.Errorf("payout(8, 1.125) = %d, want 9", got)
	}
	if got := payout(7, mult); got != 7 {
		t.Errorf("payout(7, 1.125) = %d, want 7", got)
	}
}
