package bingo

import (
	"fmt"
	"math"
)

// FormatProbability renders a probability as a whole percentage, rounding
// half up: 0.4567 -> "46%". NaN and infinities render as "0%".
func FormatProbability(p float64) string {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int64(math.Floor(p*100+0.5)))
}
