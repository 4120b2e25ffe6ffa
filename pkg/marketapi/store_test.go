package marketapi

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/bingofutures/pkg/lmsr"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "bingo_test.db")
	if err := EnsureMigrations(dbPath); err != nil {
		t.Fatal(err)
	}
	s, err := NewSqliteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEnsureMigrationsTwice(t *testing.T) {
	is := is.New(t)
	dbPath := filepath.Join(t.TempDir(), "bingo_test.db")
	is.NoErr(EnsureMigrations(dbPath))
	is.NoErr(EnsureMigrations(dbPath))
}

func TestCreateBoard(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	id, err := s.CreateBoard(ctx, "office bingo", 100)
	is.NoErr(err)

	b, err := s.GetBoard(ctx, id)
	is.NoErr(err)
	is.Equal(b.Description, "office bingo")
	is.Equal(b.Liquidity, 100.0)
	is.Equal(len(b.Squares), 9)
	for i, sq := range b.Squares {
		is.Equal(sq.Index, i)
		is.Equal(sq.YesShares, 0.0)
		is.Equal(sq.NoShares, 0.0)
		is.True(sq.LastPrice == nil)
	}
}

func TestCreateBoardBadLiquidity(t *testing.T) {
	is := is.New(t)
	s := newTestStore(t)
	_, err := s.CreateBoard(context.Background(), "bad", 0)
	is.True(errors.Is(err, lmsr.ErrInvalidParameter))
}

func TestGetBoardNotFound(t *testing.T) {
	is := is.New(t)
	s := newTestStore(t)
	_, err := s.GetBoard(context.Background(), "nope")
	is.True(errors.Is(err, ErrBoardNotFound))
}

func TestFulfillOrder(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateBoard(ctx, "office bingo", 100)
	b, _ := s.GetBoard(ctx, id)
	sqID := b.Squares[4].ID

	quote, err := s.QuoteOrder(ctx, sqID, lmsr.Yes, 10)
	is.NoErr(err)
	is.Equal(quote, int64(6))

	order, err := s.FulfillOrder(ctx, sqID, lmsr.Yes, 10)
	is.NoErr(err)
	is.Equal(order.Cost, quote)
	is.Equal(order.Direction, lmsr.Yes)
	wantPrice, _ := lmsr.PriceYes(10, 0, 100)
	is.Equal(order.PriceYes, wantPrice)

	sq, err := s.GetSquare(ctx, sqID)
	is.NoErr(err)
	is.Equal(sq.YesShares, 10.0)
	is.Equal(sq.NoShares, 0.0)
	is.Equal(*sq.LastPrice, wantPrice)

	order, err = s.FulfillOrder(ctx, sqID, lmsr.No, 25)
	is.NoErr(err)
	wantCost, _ := lmsr.BuyCost(10, 0, lmsr.No, 25, 100)
	is.Equal(order.Cost, wantCost)

	orders, err := s.GetOrders(ctx, sqID)
	is.NoErr(err)
	is.Equal(len(orders), 2)
	is.Equal(orders[0].Direction, lmsr.Yes)
	is.Equal(orders[1].Direction, lmsr.No)
	is.Equal(orders[1].Shares, 25.0)
}

func TestFulfillOrderRejected(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateBoard(ctx, "office bingo", 100)
	b, _ := s.GetBoard(ctx, id)
	sqID := b.Squares[0].ID

	_, err := s.FulfillOrder(ctx, sqID, lmsr.Yes, 0)
	is.True(errors.Is(err, lmsr.ErrInvalidParameter))
	_, err = s.FulfillOrder(ctx, "missing", lmsr.Yes, 1)
	is.True(errors.Is(err, ErrSquareNotFound))

	// nothing was written
	sq, err := s.GetSquare(ctx, sqID)
	is.NoErr(err)
	is.Equal(sq.YesShares, 0.0)
	orders, err := s.GetOrders(ctx, sqID)
	is.NoErr(err)
	is.Equal(len(orders), 0)
}

func TestFulfillSimultaneousOrders(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	s := newTestStore(t)
	id, _ := s.CreateBoard(ctx, "office bingo", 100)
	b, _ := s.GetBoard(ctx, id)
	sqID := b.Squares[2].ID

	// Order one share simultaneously from 25 goroutines. Each trade must be
	// priced against the inventory left by the one before it.
	var wg sync.WaitGroup
	errs := make(chan error, 25)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.FulfillOrder(ctx, sqID, lmsr.Yes, 1)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		is.NoErr(err)
	}

	sq, err := s.GetSquare(ctx, sqID)
	is.NoErr(err)
	is.Equal(sq.YesShares, 25.0)
	wantPrice, _ := lmsr.PriceYes(25, 0, 100)
	is.Equal(*sq.LastPrice, wantPrice)

	orders, err := s.GetOrders(ctx, sqID)
	is.NoErr(err)
	is.Equal(len(orders), 25)
	for i, o := range orders {
		want, _ := lmsr.BuyCost(float64(i), 0, lmsr.Yes, 1, 100)
		is.Equal(o.Cost, want)
	}
}
