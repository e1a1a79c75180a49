package games

import "math"

// plinkoPayouts is the 15-slot multiplier table, symmetric and peaking at
// the edges. Slot landing probability is binomial-like, so the rich edge
// slots are correspondingly rare.
var plinkoPayouts = []float64{128, 32, 8, 2, 1, 0.5, 0.2, 0.2, 0.2, 0.5, 1, 2, 8, 32, 128}

// PlinkoPayouts returns a copy of the slot multiplier table.
func PlinkoPayouts() []float64 {
	out := make([]float64, len(plinkoPayouts))
	copy(out, plinkoPayouts)
	return out
}

// plinkoLandingProbability returns the peg-walk model's probability of
// landing in the given slot: binomial over the hop choices, offset by the
// fixed center start peg.
func plinkoLandingProbability(slot int) float64 {
	// The walk starts at peg index 1 of the first row and takes
	// plinkoHops fair +0/+1 steps, so slot = 1 + (number of right steps).
	rights := slot - 1
	if rights < 0 || rights > plinkoHops {
		return 0
	}
	return binomial(plinkoHops, rights) / math.Pow(2, float64(plinkoHops))
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 0; i < k; i++ {
		result = result * float64(n-i) / float64(i+1)
	}
	return result
}
