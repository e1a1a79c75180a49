package games

import (
	"errors"
	"testing"

	"github.com/drachma-games/casino/internal/ledger"
)

func newTestBlackjack(balance int64, seed string) (*Blackjack, *ledger.Ledger) {
	l := testLedger(balance)
	return NewBlackjack(l, newSeedRNG(seed)), l
}

func TestBlackjackPlaceBet(t *testing.T) {
	bj, l := newTestBlackjack(100, "bet_seed")

	if err := bj.PlaceBet(0); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("bet 0: got %v, want ErrInvalidBet", err)
	}
	if err := bj.PlaceBet(101); !errors.Is(err, ErrInvalidBet) {
		t.Errorf("bet over balance: got %v, want ErrInvalidBet", err)
	}

	if err := bj.PlaceBet(10); err != nil {
		t.Fatalf("PlaceBet(10): %v", err)
	}
	if bj.State() != BlackjackDealing {
		t.Errorf("state after bet = %s, want dealing", bj.State())
	}
	if l.Balance() != 90 {
		t.Errorf("balance after bet = %d, want 90", l.Balance())
	}

	if err := bj.PlaceBet(10); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("double bet: got %v, want ErrInvalidAction", err)
	}
}

func TestBlackjackActionsOutOfTurn(t *testing.T) {
	bj, _ := newTestBlackjack(100, "turn_seed")

	if err := bj.Deal(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Deal without bet: got %v, want ErrInvalidAction", err)
	}
	if err := bj.Hit(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Hit while idle: got %v, want ErrInvalidAction", err)
	}
	if err := bj.Stand(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Stand while idle: got %v, want ErrInvalidAction", err)
	}
	if err := bj.Split(); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Split while idle: got %v, want ErrInvalidAction", err)
	}
}

func TestBlackjackDealShape(t *testing.T) {
	bj, _ := newTestBlackjack(1000, "deal_seed")

	for round := 0; round < 20; round++ {
		if err := bj.PlaceBet(10); err != nil {
			t.Fatalf("round %d: PlaceBet: %v", round, err)
		}
		if err := bj.Deal(); err != nil {
			t.Fatalf("round %d: Deal: %v", round, err)
		}

		switch bj.State() {
		case BlackjackPlayerTurn:
			hands := bj.PlayerHands()
			if len(hands) != 1 || len(hands[0]) != 2 {
				t.Fatalf("round %d: player hands %v, want one two-card hand", round, hands)
			}
			if len(bj.DealerHand()) != 2 {
				t.Fatalf("round %d: dealer has %d cards, want 2", round, len(bj.DealerHand()))
			}
			if err := bj.Stand(); err != nil {
				t.Fatalf("round %d: Stand: %v", round, err)
			}
		case BlackjackIdle:
			// Natural: settled on the deal.
			out := bj.Outcome()
			if out == nil {
				t.Fatalf("round %d: idle after deal with no outcome", round)
			}
			v := out.Hands[0].Verdict
			if v != VerdictBlackjack && v != VerdictPush {
				t.Fatalf("round %d: natural settled as %s", round, v)
			}
		default:
			t.Fatalf("round %d: unexpected state %s after deal", round, bj.State())
		}
	}
}

// Rounds always conserve chips: final balance equals the balance after the
// bet debit plus the settled credit, and every credit matches its verdict.
func TestBlackjackSettlementConservation(t *testing.T) {
	bj, l := newTestBlackjack(1_000_000, "conserve_seed")
	const bet = 10

	verdicts := make(map[Verdict]int)
	for round := 0; round < 300; round++ {
		before := l.Balance()
		if err := bj.PlaceBet(bet); err != nil {
			t.Fatalf("round %d: PlaceBet: %v", round, err)
		}
		if err := bj.Deal(); err != nil {
			t.Fatalf("round %d: Deal: %v", round, err)
		}

		// Simple strategy: hit below 17, then stand.
		for bj.State() == BlackjackPlayerTurn {
			if HandValue(bj.PlayerHands()[0]) < 17 {
				if err := bj.Hit(); err != nil {
					t.Fatalf("round %d: Hit: %v", round, err)
				}
			} else {
				if err := bj.Stand(); err != nil {
					t.Fatalf("round %d: Stand: %v", round, err)
				}
			}
		}
		if bj.State() != BlackjackIdle {
			t.Fatalf("round %d: round did not settle, state %s", round, bj.State())
		}

		out := bj.Outcome()
		if out == nil {
			t.Fatalf("round %d: no outcome after settlement", round)
		}
		if got := l.Balance(); got != before-bet+out.TotalCredit {
			t.Fatalf("round %d: balance %d, want %d - %d + %d", round, got, before, bet, out.TotalCredit)
		}

		for _, hand := range out.Hands {
			verdicts[hand.Verdict]++
			switch hand.Verdict {
			case VerdictWin:
				if hand.Credit != bet*2 {
					t.Errorf("round %d: win credit %d, want %d", round, hand.Credit, bet*2)
				}
				if out.DealerValue <= 21 && hand.Value <= out.DealerValue {
					t.Errorf("round %d: win with player %d vs dealer %d", round, hand.Value, out.DealerValue)
				}
			case VerdictLose:
				if hand.Credit != 0 {
					t.Errorf("round %d: lose credit %d, want 0", round, hand.Credit)
				}
			case VerdictPush:
				if hand.Credit != bet {
					t.Errorf("round %d: push credit %d, want %d", round, hand.Credit, bet)
				}
			case VerdictBust:
				if hand.Value <= 21 || hand.Credit != 0 {
					t.Errorf("round %d: bust with value %d credit %d", round, hand.Value, hand.Credit)
				}
			case VerdictBlackjack:
				if hand.Credit != bet*5/2 {
					t.Errorf("round %d: natural credit %d, want %d", round, hand.Credit, bet*5/2)
				}
			}
		}

		// The dealer plays to 17 whenever any player hand stood.
		stood := false
		for _, hand := range out.Hands {
			if hand.Verdict == VerdictWin || hand.Verdict == VerdictLose || hand.Verdict == VerdictPush {
				stood = true
			}
		}
		if stood && out.DealerValue < 17 {
			t.Errorf("round %d: dealer stopped at %d", round, out.DealerValue)
		}
	}

	if verdicts[VerdictWin] == 0 || verdicts[VerdictLose] == 0 {
		t.Errorf("300 rounds produced no variety: %v", verdicts)
	}
}

func TestBlackjackNaturalFloorsOddBet(t *testing.T) {
	bj, _ := newTestBlackjack(1_000_000, "natural_seed")

	for round := 0; round < 500; round++ {
		if err := bj.PlaceBet(11); err != nil {
			t.Fatalf("round %d: PlaceBet: %v", round, err)
		}
		if err := bj.Deal(); err != nil {
			t.Fatalf("round %d: Deal: %v", round, err)
		}
		for bj.State() == BlackjackPlayerTurn {
			if err := bj.Stand(); err != nil {
				t.Fatalf("round %d: Stand: %v", round, err)
			}
		}
		out := bj.Outcome()
		if out == nil {
			t.Fatalf("round %d: no outcome", round)
		}
		if out.Hands[0].Verdict == VerdictBlackjack {
			// 11 × 2.5 = 27.5, floored to 27 whole coins.
			if out.TotalCredit != 27 {
				t.Fatalf("round %d: natural credit %d on bet 11, want 27", round, out.TotalCredit)
			}
			return
		}
	}
	t.Fatal("no natural in 500 rounds")
}

func TestBlackjackSplit(t *testing.T) {
	bj, l := newTestBlackjack(1_000_000, "split_seed")
	const bet = 10

	splits := 0
	for round := 0; round < 500 && splits < 3; round++ {
		before := l.Balance()
		if err := bj.PlaceBet(bet); err != nil {
			t.Fatalf("round %d: PlaceBet: %v", round, err)
		}
		if err := bj.Deal(); err != nil {
			t.Fatalf("round %d: Deal: %v", round, err)
		}

		if bj.State() == BlackjackPlayerTurn && !bj.CanSplit() {
			hand := bj.PlayerHands()[0]
			if hand[0].Value() == hand[1].Value() {
				t.Errorf("round %d: pair %v not splittable", round, hand)
			}
			if err := bj.Stand(); err != nil {
				t.Fatalf("round %d: Stand: %v", round, err)
			}
			continue
		}
		if bj.State() != BlackjackPlayerTurn {
			continue
		}

		splits++
		if err := bj.Split(); err != nil {
			t.Fatalf("round %d: Split: %v", round, err)
		}

		// Ace splits settle immediately; otherwise stand both sub-hands.
		for bj.State() == BlackjackSplitTurn {
			if err := bj.Stand(); err != nil {
				t.Fatalf("round %d: Stand sub-hand: %v", round, err)
			}
		}

		out := bj.Outcome()
		if out == nil {
			t.Fatalf("round %d: split round has no outcome", round)
		}
		if len(out.Hands) != 2 {
			t.Fatalf("round %d: split settled %d hands, want 2", round, len(out.Hands))
		}
		for i, hand := range out.Hands {
			if len(hand.Cards) < 2 {
				t.Errorf("round %d: sub-hand %d has %d cards", round, i, len(hand.Cards))
			}
		}
		if got := l.Balance(); got != before-2*bet+out.TotalCredit {
			t.Fatalf("round %d: balance %d after split, want %d - %d + %d", round, got, before, 2*bet, out.TotalCredit)
		}
	}

	if splits == 0 {
		t.Fatal("no splittable hand in 500 rounds")
	}
}

func TestBlackjackSplitNeedsFunds(t *testing.T) {
	// Balance covers the first bet only, so CanSplit must stay false even
	// when a pair shows up.
	bj, _ := newTestBlackjack(10, "poor_seed")
	if err := bj.PlaceBet(10); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if err := bj.Deal(); err != nil {
		t.Fatalf("Deal: %v", err)
	}
	if bj.CanSplit() {
		t.Error("CanSplit true with no balance for the second bet")
	}
	if bj.State() == BlackjackPlayerTurn {
		if err := bj.Split(); !errors.Is(err, ErrInsufficientBalance) && !errors.Is(err, ErrInvalidAction) {
			t.Errorf("Split without funds: got %v", err)
		}
	}
}

func TestBlackjackOutcomeClearedOnNewBet(t *testing.T) {
	bj, _ := newTestBlackjack(1000, "clear_seed")
	if err := bj.PlaceBet(10); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if err := bj.Deal(); err != nil {
		t.Fatalf("Deal: %v", err)
	}
	for bj.State() == BlackjackPlayerTurn {
		if err := bj.Stand(); err != nil {
			t.Fatalf("Stand: %v", err)
		}
	}
	if bj.Outcome() == nil {
		t.Fatal("no outcome after settled round")
	}

	if err := bj.PlaceBet(10); err != nil {
		t.Fatalf("second PlaceBet: %v", err)
	}
	if bj.Outcome() != nil {
		t.Error("stale outcome survives a new bet")
	}
}
