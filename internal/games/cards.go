package games

import "strconv"

// Card is a playing card with suit and rank 1 (ace) through 13 (king).
type Card struct {
	Suit string `json:"suit"`
	Rank int    `json:"rank"`
}

// Suits in display order.
var cardSuits = []string{"♠", "♥", "♦", "♣"}

// DisplayRank returns "A", "J", "Q", "K" or the numeral.
func (c Card) DisplayRank() string {
	switch c.Rank {
	case 1:
		return "A"
	case 11:
		return "J"
	case 12:
		return "Q"
	case 13:
		return "K"
	default:
		return strconv.Itoa(c.Rank)
	}
}

// String returns a human-readable representation like "A♠" or "10♦".
func (c Card) String() string {
	return c.DisplayRank() + c.Suit
}

// Value returns the blackjack value with face cards capped at 10. Aces
// count 1 here; the soft-ace promotion happens at hand level.
func (c Card) Value() int {
	if c.Rank > 10 {
		return 10
	}
	return c.Rank
}

// Shoe is the shuffled 52-card sequence a round draws from. Cards are
// consumed by popping from the end, so no draw repeats within one shoe.
type Shoe struct {
	cards []Card
}

// NewShoe builds a fresh 52-card shoe and Fisher-Yates shuffles it with
// floats from the stream.
func NewShoe(rng streamShuffler) *Shoe {
	s := &Shoe{cards: make([]Card, 0, 52)}
	for _, suit := range cardSuits {
		for rank := 1; rank <= 13; rank++ {
			s.cards = append(s.cards, Card{Suit: suit, Rank: rank})
		}
	}
	for i := len(s.cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
	return s
}

// Draw pops the next card. Panics if the shoe is empty; a blackjack round
// can never legally exhaust 52 cards.
func (s *Shoe) Draw() Card {
	c := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]
	return c
}

// Remaining reports how many cards are left.
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// streamShuffler is the subset of engine.Stream the shoe needs. Declared
// as a local alias point so tests can exercise the shoe with any stream.
type streamShuffler interface {
	Intn(n int) int
}

// HandValue scores a blackjack hand: capped ranks summed, then each ace
// promoted from 1 to 11 while the total stays ≤ 21.
func HandValue(hand []Card) int {
	value := 0
	aces := 0
	for _, c := range hand {
		if c.Rank == 1 {
			aces++
			continue
		}
		value += c.Value()
	}
	for i := 0; i < aces; i++ {
		if value+11 <= 21 {
			value += 11
		} else {
			value++
		}
	}
	return value
}
