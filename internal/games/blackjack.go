package games

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/drachma-games/casino/internal/ledger"
)

// BlackjackState enumerates the round lifecycle. Dealer play and
// settlement are computed synchronously, so the externally observable
// states are the ones a caller can act in.
type BlackjackState int

const (
	// BlackjackIdle means no round is in progress.
	BlackjackIdle BlackjackState = iota
	// BlackjackDealing means a bet is placed and Deal is pending.
	BlackjackDealing
	// BlackjackPlayerTurn means the single player hand is acting.
	BlackjackPlayerTurn
	// BlackjackSplitTurn means one of two split sub-hands is acting.
	BlackjackSplitTurn
)

func (s BlackjackState) String() string {
	switch s {
	case BlackjackIdle:
		return "idle"
	case BlackjackDealing:
		return "dealing"
	case BlackjackPlayerTurn:
		return "playerTurn"
	case BlackjackSplitTurn:
		return "splitTurn"
	default:
		return "unknown"
	}
}

// Verdict is the per-hand settlement result.
type Verdict string

const (
	VerdictWin       Verdict = "win"
	VerdictLose      Verdict = "lose"
	VerdictPush      Verdict = "push"
	VerdictBust      Verdict = "bust"
	VerdictBlackjack Verdict = "blackjack"
)

// HandResult is the settled outcome of one player hand.
type HandResult struct {
	Cards   []Card  `json:"cards"`
	Value   int     `json:"value"`
	Verdict Verdict `json:"verdict"`
	Credit  int64   `json:"credit"`
}

// BlackjackOutcome is the full settlement of a round, retained until the
// next bet is placed.
type BlackjackOutcome struct {
	RoundID     string       `json:"round_id"`
	Bet         int64        `json:"bet"`
	Hands       []HandResult `json:"hands"`
	DealerCards []Card       `json:"dealer_cards"`
	DealerValue int          `json:"dealer_value"`
	TotalCredit int64        `json:"total_credit"`
}

// Blackjack runs one table: bet placement, deal, hit/stand/split, dealer
// policy and settlement against the session ledger.
type Blackjack struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	rng    RNG

	state   BlackjackState
	roundID string
	bet     int64
	shoe    *Shoe
	player  []Card
	dealer  []Card

	// Split bookkeeping. results holds the final value of a sub-hand, or
	// -1 for a bust, or 0 while the hand is still acting.
	split        bool
	splitHands   [2][]Card
	splitResults [2]int
	activeHand   int

	outcome *BlackjackOutcome
}

const splitBust = -1

// NewBlackjack creates a table bound to the session ledger and RNG.
func NewBlackjack(l *ledger.Ledger, rng RNG) *Blackjack {
	return &Blackjack{ledger: l, rng: rng, state: BlackjackIdle}
}

// State returns the current lifecycle state.
func (b *Blackjack) State() BlackjackState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Bet returns the per-hand wager of the current or last round.
func (b *Blackjack) Bet() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bet
}

// PlayerHands returns copies of the player's hand(s): one entry normally,
// two after a split.
func (b *Blackjack) PlayerHands() [][]Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.split {
		return [][]Card{cloneCards(b.splitHands[0]), cloneCards(b.splitHands[1])}
	}
	return [][]Card{cloneCards(b.player)}
}

// DealerHand returns a copy of the dealer's cards.
func (b *Blackjack) DealerHand() []Card {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneCards(b.dealer)
}

// ActiveHand reports which split sub-hand is acting (0 or 1); meaningful
// only in BlackjackSplitTurn.
func (b *Blackjack) ActiveHand() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.activeHand
}

// Outcome returns the settlement of the last completed round, or nil.
func (b *Blackjack) Outcome() *BlackjackOutcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.outcome
}

// PlaceBet debits the wager and opens a round. Rejected when a round is in
// progress, the amount is below 1, or it exceeds the balance.
func (b *Blackjack) PlaceBet(amount int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BlackjackIdle {
		return fmt.Errorf("%w: round already in progress", ErrInvalidAction)
	}
	if amount < 1 {
		return fmt.Errorf("%w: minimum bet is 1", ErrInvalidBet)
	}
	if amount > b.ledger.Balance() {
		return fmt.Errorf("%w: bet %d exceeds balance", ErrInvalidBet, amount)
	}
	if err := b.ledger.Debit(amount, "blackjack:bet"); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBet, err)
	}
	b.bet = amount
	b.roundID = uuid.NewString()
	b.outcome = nil
	b.state = BlackjackDealing
	return nil
}

// Deal shuffles a fresh shoe and deals player, dealer, player, dealer.
// A natural two-card 21 short-circuits the round: push against a dealer
// natural, otherwise the player is paid 1.5× profit. The credit is
// computed in integer math, so an odd bet floors the half coin.
func (b *Blackjack) Deal() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BlackjackDealing {
		return fmt.Errorf("%w: deal requires a placed bet", ErrInvalidAction)
	}

	b.shoe = NewShoe(b.rng.NextStream())
	b.player = nil
	b.dealer = nil
	b.split = false
	b.splitHands = [2][]Card{}
	b.splitResults = [2]int{}
	b.activeHand = 0

	for i := 0; i < 2; i++ {
		b.player = append(b.player, b.shoe.Draw())
		b.dealer = append(b.dealer, b.shoe.Draw())
	}

	if HandValue(b.player) == 21 {
		if HandValue(b.dealer) == 21 {
			b.settleSingle(VerdictPush, b.bet)
		} else {
			// Stake returned plus 1.5× profit.
			b.settleSingle(VerdictBlackjack, b.bet*5/2)
		}
		return nil
	}

	b.state = BlackjackPlayerTurn
	return nil
}

// Hit draws one card into the acting hand. A bust ends the round (or the
// sub-hand, in split play) with the dealer as winner of that hand.
func (b *Blackjack) Hit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BlackjackPlayerTurn:
		b.player = append(b.player, b.shoe.Draw())
		if HandValue(b.player) > 21 {
			b.settleSingle(VerdictBust, 0)
		}
		return nil
	case BlackjackSplitTurn:
		hand := append(b.splitHands[b.activeHand], b.shoe.Draw())
		b.splitHands[b.activeHand] = hand
		if HandValue(hand) > 21 {
			b.splitResults[b.activeHand] = splitBust
			b.advanceSplit()
		}
		return nil
	default:
		return fmt.Errorf("%w: hit in state %s", ErrInvalidAction, b.state)
	}
}

// Stand ends the acting hand's turn. In single play the dealer draws and
// the round settles; in split play the sub-hand's value is recorded and
// the turn advances.
func (b *Blackjack) Stand() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BlackjackPlayerTurn:
		b.playDealer()
		b.settleSingle(b.compareToDealer(HandValue(b.player)))
		return nil
	case BlackjackSplitTurn:
		b.splitResults[b.activeHand] = HandValue(b.splitHands[b.activeHand])
		b.advanceSplit()
		return nil
	default:
		return fmt.Errorf("%w: stand in state %s", ErrInvalidAction, b.state)
	}
}

// CanSplit reports whether the current hand is splittable: exactly two
// cards of equal capped value (so K+Q splits, matching the table rule this
// engine inherited) and a balance covering the second bet.
func (b *Blackjack) CanSplit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canSplitLocked()
}

func (b *Blackjack) canSplitLocked() bool {
	return b.state == BlackjackPlayerTurn &&
		!b.split &&
		len(b.player) == 2 &&
		b.player[0].Value() == b.player[1].Value() &&
		b.ledger.Balance() >= b.bet
}

// Split debits a second equal bet and plays the two cards as independent
// hands, dealing one card to each. Split aces auto-stand after their
// second card and the round proceeds straight to the dealer.
func (b *Blackjack) Split() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BlackjackPlayerTurn || b.split || len(b.player) != 2 {
		return fmt.Errorf("%w: split requires an unsplit two-card hand", ErrInvalidAction)
	}
	if b.player[0].Value() != b.player[1].Value() {
		return fmt.Errorf("%w: cards are not a pair", ErrInvalidAction)
	}
	if b.ledger.Balance() < b.bet {
		return fmt.Errorf("%w: second bet of %d needed to split", ErrInsufficientBalance, b.bet)
	}
	if err := b.ledger.Debit(b.bet, "blackjack:split"); err != nil {
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}

	aceSplit := b.player[0].Rank == 1 && b.player[1].Rank == 1
	b.split = true
	b.splitHands[0] = []Card{b.player[0], b.shoe.Draw()}
	b.splitHands[1] = []Card{b.player[1], b.shoe.Draw()}
	b.splitResults = [2]int{}
	b.activeHand = 0

	if aceSplit {
		// One card per hand, no further hits.
		b.splitResults[0] = HandValue(b.splitHands[0])
		b.splitResults[1] = HandValue(b.splitHands[1])
		b.settleSplit()
		return nil
	}

	b.state = BlackjackSplitTurn
	return nil
}

// advanceSplit moves to the second sub-hand or, once both are recorded,
// to dealer play and settlement.
func (b *Blackjack) advanceSplit() {
	if b.activeHand == 0 {
		b.activeHand = 1
		return
	}
	b.settleSplit()
}

// playDealer draws for the dealer until 17 or more, soft 17 included.
func (b *Blackjack) playDealer() {
	for HandValue(b.dealer) < 17 {
		b.dealer = append(b.dealer, b.shoe.Draw())
	}
}

// compareToDealer resolves a standing player value against the dealer.
func (b *Blackjack) compareToDealer(playerValue int) (Verdict, int64) {
	dealerValue := HandValue(b.dealer)
	switch {
	case dealerValue > 21:
		return VerdictWin, b.bet * 2
	case playerValue > dealerValue:
		return VerdictWin, b.bet * 2
	case playerValue < dealerValue:
		return VerdictLose, 0
	default:
		return VerdictPush, b.bet
	}
}

// settleSingle closes a non-split round with the given verdict and credit.
func (b *Blackjack) settleSingle(verdict Verdict, credit int64) {
	if credit > 0 {
		b.ledger.Credit(credit, "blackjack:payout")
	}
	b.outcome = &BlackjackOutcome{
		RoundID: b.roundID,
		Bet:     b.bet,
		Hands: []HandResult{{
			Cards:   cloneCards(b.player),
			Value:   HandValue(b.player),
			Verdict: verdict,
			Credit:  credit,
		}},
		DealerCards: cloneCards(b.dealer),
		DealerValue: HandValue(b.dealer),
		TotalCredit: credit,
	}
	b.finishRound()
}

// settleSplit plays the dealer once and compares both sub-hands
// independently, each against its own equal bet.
func (b *Blackjack) settleSplit() {
	b.playDealer()
	total := int64(0)
	hands := make([]HandResult, 0, 2)
	for i := 0; i < 2; i++ {
		result := HandResult{
			Cards: cloneCards(b.splitHands[i]),
			Value: HandValue(b.splitHands[i]),
		}
		if b.splitResults[i] == splitBust {
			result.Verdict = VerdictBust
			result.Credit = 0
		} else {
			result.Verdict, result.Credit = b.compareToDealer(b.splitResults[i])
		}
		total += result.Credit
		hands = append(hands, result)
	}
	if total > 0 {
		b.ledger.Credit(total, "blackjack:payout")
	}
	b.outcome = &BlackjackOutcome{
		RoundID:     b.roundID,
		Bet:         b.bet,
		Hands:       hands,
		DealerCards: cloneCards(b.dealer),
		DealerValue: HandValue(b.dealer),
		TotalCredit: total,
	}
	b.finishRound()
}

// finishRound discards the shoe and returns to idle. The outcome stays
// queryable until the next PlaceBet.
func (b *Blackjack) finishRound() {
	b.shoe = nil
	b.state = BlackjackIdle
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}
