package games

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	minesGridSize   = 5
	minesTotalCells = minesGridSize * minesGridSize
	minesMinCount   = 1
	minesMaxCount   = minesTotalCells - 1
)

// minesHouseFactor scales the fair multiplier down to a 1% house edge.
var minesHouseFactor = decimal.RequireFromString("0.99")

// minesMultipliers[m][k] is the cash-out multiplier after surviving k safe
// reveals with m mines on the board. Row k=0 is 1.0 so an immediate
// cash-out returns the stake. For k >= 1 the fair multiplier is
// C(25,k)/C(25-m,k), built incrementally as a product of survival odds.
var minesMultipliers = buildMinesMultipliers()

func buildMinesMultipliers() [][]decimal.Decimal {
	tables := make([][]decimal.Decimal, minesMaxCount+1)
	for m := minesMinCount; m <= minesMaxCount; m++ {
		maxReveals := minesTotalCells - m
		row := make([]decimal.Decimal, maxReveals+1)
		row[0] = decimal.NewFromInt(1)
		fair := decimal.NewFromInt(1)
		for k := 1; k <= maxReveals; k++ {
			// Odds of the k-th reveal being safe: (25-m-(k-1)) / (25-(k-1)).
			remaining := decimal.NewFromInt(int64(minesTotalCells - k + 1))
			safe := decimal.NewFromInt(int64(minesTotalCells - m - k + 1))
			fair = fair.Mul(remaining).Div(safe)
			row[k] = fair.Mul(minesHouseFactor).Round(4)
		}
		tables[m] = row
	}
	return tables
}

// MinesMultiplier returns the payout multiplier for revealed safe cells
// with the given mine count.
func MinesMultiplier(mineCount, revealed int) (decimal.Decimal, error) {
	if mineCount < minesMinCount || mineCount > minesMaxCount {
		return decimal.Decimal{}, fmt.Errorf("%w: mine count %d outside [%d, %d]", ErrConfiguration, mineCount, minesMinCount, minesMaxCount)
	}
	row := minesMultipliers[mineCount]
	if revealed < 0 || revealed >= len(row) {
		return decimal.Decimal{}, fmt.Errorf("%w: %d reveals impossible with %d mines", ErrConfiguration, revealed, mineCount)
	}
	return row[revealed], nil
}
