package marketapi

import (
	"context"

	"github.com/domino14/bingofutures/pkg/bingo"
	"github.com/domino14/bingofutures/pkg/config"
	"github.com/domino14/bingofutures/pkg/lmsr"
)

type MarketService struct {
	store *SqliteStore
	cfg   *config.Config
}

func NewMarketService(store *SqliteStore, cfg *config.Config) *MarketService {
	return &MarketService{store: store, cfg: cfg}
}

type SquareView struct {
	*Square
	PriceYes float64
	PriceNo  float64
}

type LineView struct {
	bingo.Line
	Display string
}

type BoardSnapshot struct {
	Board           *Board
	Squares         []SquareView
	Lines           []LineView
	Blackout        float64
	BlackoutDisplay string
	// Subsidy is the market maker's worst-case loss summed over the squares.
	Subsidy float64
}

// CreateBoard creates a board at the configured default liquidity.
func (m *MarketService) CreateBoard(ctx context.Context, description string) (string, error) {
	return m.store.CreateBoard(ctx, description, m.cfg.Liquidity)
}

// GetBoard returns every square's prices and the derived line and blackout
// probabilities for the board.
func (m *MarketService) GetBoard(ctx context.Context, boardID string) (*BoardSnapshot, error) {
	b, err := m.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	snap := &BoardSnapshot{Board: b, Squares: make([]SquareView, 0, len(b.Squares))}
	squares := make([]bingo.Square, 0, len(b.Squares))
	for _, sq := range b.Squares {
		py, err := lmsr.PriceYes(sq.YesShares, sq.NoShares, sq.Liquidity)
		if err != nil {
			return nil, err
		}
		snap.Squares = append(snap.Squares, SquareView{Square: sq, PriceYes: py, PriceNo: 1 - py})
		// squares that never traded stay unpriced
		bsq := bingo.Square{}
		if sq.LastPrice != nil {
			p := py
			bsq.CurrentPrice = &p
		}
		squares = append(squares, bsq)

		loss, err := lmsr.MaxLoss(sq.Liquidity, 2)
		if err != nil {
			return nil, err
		}
		snap.Subsidy += loss
	}

	derived := bingo.DerivedMarkets(squares, m.cfg.Correlation)
	snap.Lines = make([]LineView, 0, len(derived.Lines))
	for _, l := range derived.Lines {
		snap.Lines = append(snap.Lines, LineView{Line: l, Display: bingo.FormatProbability(l.Probability)})
	}
	snap.Blackout = derived.Blackout
	snap.BlackoutDisplay = bingo.FormatProbability(derived.Blackout)
	return snap, nil
}

func (m *MarketService) Quote(ctx context.Context, squareID, direction string, shares float64) (int64, error) {
	dir, err := lmsr.ParseDirection(direction)
	if err != nil {
		return 0, err
	}
	return m.store.QuoteOrder(ctx, squareID, dir, shares)
}

func (m *MarketService) Buy(ctx context.Context, squareID, direction string, shares float64) (*Order, error) {
	dir, err := lmsr.ParseDirection(direction)
	if err != nil {
		return nil, err
	}
	return m.store.FulfillOrder(ctx, squareID, dir, shares)
}
