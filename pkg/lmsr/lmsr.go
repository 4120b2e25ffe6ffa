// package lmsr implements a Logarithmic Market Scoring Rule

package lmsr

import (
	"errors"
	"fmt"
	"math"
)

// Liquidity is the default liquidity constant (b).
const Liquidity = float64(100.0)

var ErrInvalidParameter = errors.New("invalid parameter")

type Direction int

const (
	Yes Direction = iota
	No
)

func (d Direction) String() string {
	switch d {
	case Yes:
		return "YES"
	case No:
		return "NO"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "YES" or "NO".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "YES":
		return Yes, nil
	case "NO":
		return No, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", ErrInvalidParameter, s)
}

func checkLiquidity(b float64) error {
	if !(b > 0) || math.IsInf(b, 1) {
		return fmt.Errorf("%w: liquidity must be positive, got %v", ErrInvalidParameter, b)
	}
	return nil
}

func checkShares(allShares []float64) error {
	if len(allShares) == 0 {
		return fmt.Errorf("%w: no outcomes", ErrInvalidParameter)
	}
	for _, s := range allShares {
		if !(s >= 0) || math.IsInf(s, 1) {
			return fmt.Errorf("%w: share count must be non-negative, got %v", ErrInvalidParameter, s)
		}
	}
	return nil
}

// logSumExp returns ln(sum(exp(s/b))) with the largest exponent factored out,
// so it stays finite for share counts far larger than b.
func logSumExp(b float64, allShares []float64) float64 {
	top := allShares[0]
	for _, s := range allShares[1:] {
		if s > top {
			top = s
		}
	}
	sum := float64(0)
	for _, s := range allShares {
		sum += math.Exp((s - top) / b)
	}
	return top/b + math.Log(sum)
}

// MarketCost is the LMSR cost function b * ln(sum(exp(q_i/b))) over all
// outcomes of a market.
func MarketCost(b float64, allShares []float64) (float64, error) {
	if err := checkLiquidity(b); err != nil {
		return 0, err
	}
	if err := checkShares(allShares); err != nil {
		return 0, err
	}
	return b * logSumExp(b, allShares), nil
}

// softmax returns the price of outcome idx and its natural log, with the
// largest exponent factored out.
func softmax(b float64, allShares []float64, idx int) (p, logP float64, err error) {
	if err := checkLiquidity(b); err != nil {
		return 0, 0, err
	}
	if err := checkShares(allShares); err != nil {
		return 0, 0, err
	}
	if idx < 0 || idx >= len(allShares) {
		return 0, 0, fmt.Errorf("%w: outcome index %d out of range", ErrInvalidParameter, idx)
	}
	top := allShares[0]
	for _, s := range allShares[1:] {
		if s > top {
			top = s
		}
	}
	sum := float64(0)
	for _, s := range allShares {
		sum += math.Exp((s - top) / b)
	}
	num := math.Exp((allShares[idx] - top) / b)
	return num / sum, (allShares[idx]-top)/b - math.Log(sum), nil
}

// Price calculates the price of a stock given a liquidity constant (b),
// the number of outstanding shares for all stocks, represented as an array,
// and the index of this stock in the array. Prices across all stocks sum to 1.
func Price(b float64, allShares []float64, shareIdx int) (float64, error) {
	p, _, err := softmax(b, allShares, shareIdx)
	return p, err
}

// TradeCost calculates the price of buying `shares` shares of a stock, given
// a liquidity constant b, the outstanding shares for all stocks, and the
// index of our particular stock in this array of outstanding shares.
// allShares is not modified.
//
// The cost difference is b * ln(1 + p*(e^(shares/b) - 1)) where p is the
// stock's current price, which avoids subtracting two large costs.
func TradeCost(b float64, shares float64, allShares []float64, idx int) (float64, error) {
	if !(shares > 0) || math.IsInf(shares, 1) {
		return 0, fmt.Errorf("%w: share delta must be positive, got %v", ErrInvalidParameter, shares)
	}
	p, logP, err := softmax(b, allShares, idx)
	if err != nil {
		return 0, err
	}
	x := shares / b
	if em := math.Expm1(x); !math.IsInf(em, 1) {
		return b * math.Log1p(p*em), nil
	}
	// e^x overflows: factor p*e^x out of the log instead.
	return b*(x+logP) + b*math.Log1p((1-p)*math.Exp(-x-logP)), nil
}

// Cost is the binary market cost b * ln(exp(yes/b) + exp(no/b)).
func Cost(yesShares, noShares, b float64) (float64, error) {
	return MarketCost(b, []float64{yesShares, noShares})
}

// PriceYes is the instantaneous price of the YES side, in (0, 1). Equal share
// counts price at exactly 0.5.
func PriceYes(yesShares, noShares, b float64) (float64, error) {
	return Price(b, []float64{yesShares, noShares}, 0)
}

// PriceNo is 1 - PriceYes.
func PriceNo(yesShares, noShares, b float64) (float64, error) {
	p, err := PriceYes(yesShares, noShares, b)
	if err != nil {
		return 0, err
	}
	return 1 - p, nil
}

// RawBuyCost is cost(after) - cost(before) for adding shareDelta shares to
// the side picked by dir, before any rounding.
func RawBuyCost(yesShares, noShares float64, dir Direction, shareDelta, b float64) (float64, error) {
	var idx int
	switch dir {
	case Yes:
		idx = 0
	case No:
		idx = 1
	default:
		return 0, fmt.Errorf("%w: unknown direction %v", ErrInvalidParameter, dir)
	}
	return TradeCost(b, shareDelta, []float64{yesShares, noShares}, idx)
}

// costSlack bounds the relative float error of RawBuyCost. A trade never
// costs more than its share count, so shareDelta*costSlack covers it.
const costSlack = 8 * 0x1p-52

// BuyCost is RawBuyCost rounded up to the next whole unit, so the market
// maker never undercharges. Any positive trade costs at least 1. Trades whose
// cost does not fit in an int64 are rejected.
func BuyCost(yesShares, noShares float64, dir Direction, shareDelta, b float64) (int64, error) {
	raw, err := RawBuyCost(yesShares, noShares, dir, shareDelta, b)
	if err != nil {
		return 0, err
	}
	c := math.Ceil(raw + shareDelta*costSlack)
	if math.IsNaN(c) || c >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("%w: cost of %v shares out of range", ErrInvalidParameter, shareDelta)
	}
	if c < 1 {
		return 1, nil
	}
	return int64(c), nil
}

// Payout is one unit per share held on the side that resolved correct.
func Payout(sharesHeld int64) int64 {
	return sharesHeld
}

// MaxLoss is the market maker's worst-case subsidy for a market with n
// outcomes: b * ln(n).
func MaxLoss(b float64, n int) (float64, error) {
	if err := checkLiquidity(b); err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: need at least one outcome", ErrInvalidParameter)
	}
	return b * math.Log(float64(n)), nil
}
