// Package games implements the three casino game engines: Blackjack,
// Plinko and Mines. Each engine is a standalone state machine that shares
// nothing with the others except the session ledger it bets against and
// the float stream it draws randomness from.
package games

import (
	"github.com/shopspring/decimal"

	"github.com/drachma-games/casino/internal/engine"
)

// RNG hands out one float stream per round (or per ball). The session owns
// the seed pair and advances the nonce on every call, so outcomes are
// replayable given the seeds.
type RNG interface {
	NextStream() *engine.Stream
}

// payout computes floor(bet × multiplier) in whole coins.
func payout(bet int64, multiplier decimal.Decimal) int64 {
	return decimal.NewFromInt(bet).Mul(multiplier).Floor().IntPart()
}
