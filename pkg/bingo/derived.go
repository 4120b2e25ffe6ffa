// Package bingo combines per-square YES prices into probabilities for the
// composite outcomes of a 3x3 board: the eight lines and the blackout.
//
// The squares on a board are treated as independent and the product of their
// prices is scaled by a constant correlation factor. This is a heuristic
// approximation of the joint probability, not a calibrated model. The caps
// (0.99 for a line, 0.5 for blackout) are fixed ceilings.
//
// Malformed input never fails here: wrong-length price lists yield zero and a
// board without exactly nine squares yields an empty result.
package bingo

import "math"

// DefaultCorrelation is the default correlation factor.
const DefaultCorrelation = 1.2

const (
	maxLineProbability     = 0.99
	maxBlackoutProbability = 0.5
	// unpricedSquare is the price of a square that has not traded yet.
	unpricedSquare = 0.5
)

// Square is a square record as seen by the aggregator. A nil CurrentPrice
// means the square has no price yet.
type Square struct {
	CurrentPrice *float64
}

func (s Square) price() float64 {
	if s.CurrentPrice == nil {
		return unpricedSquare
	}
	return *s.CurrentPrice
}

type Line struct {
	Index         int
	SquareIndices [3]int
	Probability   float64
	Type          LineType
}

type Derived struct {
	Lines    []Line
	Blackout float64
}

func product(prices []float64) float64 {
	p := float64(1)
	for _, x := range prices {
		p *= x
	}
	return p
}

func clamp(p, ceiling float64) float64 {
	return math.Max(0, math.Min(p, ceiling))
}

// LineProbability returns product(prices) * correlation, capped at 0.99.
// It returns 0 unless exactly 3 prices are given.
func LineProbability(prices []float64, correlation float64) float64 {
	if len(prices) != 3 {
		return 0
	}
	return clamp(product(prices)*correlation, maxLineProbability)
}

// BlackoutProbability returns product(prices) * correlation^3, capped at 0.5.
// It returns 0 unless exactly 9 prices are given.
func BlackoutProbability(prices []float64, correlation float64) float64 {
	if len(prices) != NumSquares {
		return 0
	}
	return clamp(product(prices)*math.Pow(correlation, 3), maxBlackoutProbability)
}

// DerivedMarkets prices every line and the blackout for a board.
func DerivedMarkets(squares []Square, correlation float64) Derived {
	if len(squares) != NumSquares {
		return Derived{Lines: []Line{}}
	}
	prices := make([]float64, NumSquares)
	for i, s := range squares {
		prices[i] = s.price()
	}
	d := Derived{Lines: make([]Line, 0, len(lines))}
	for i, idx := range lines {
		d.Lines = append(d.Lines, Line{
			Index:         i,
			SquareIndices: idx,
			Probability:   LineProbability([]float64{prices[idx[0]], prices[idx[1]], prices[idx[2]]}, correlation),
			Type:          LineTypeFor(i),
		})
	}
	d.Blackout = BlackoutProbability(prices, correlation)
	return d
}
