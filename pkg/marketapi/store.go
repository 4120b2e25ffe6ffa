package marketapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lithammer/shortuuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/domino14/bingofutures/pkg/bingo"
	"github.com/domino14/bingofutures/pkg/lmsr"
)

var (
	ErrBoardNotFound  = errors.New("board not found")
	ErrSquareNotFound = errors.New("square not found")
)

type Board struct {
	ID          string
	Description string
	Liquidity   float64
	DateCreated string
	Squares     []*Square
}

// Square is one binary market on a board. LastPrice is the YES price after
// the most recent trade, nil until the square has traded.
type Square struct {
	ID        string
	Index     int
	YesShares float64
	NoShares  float64
	Liquidity float64
	LastPrice *float64
}

type Order struct {
	ID          string
	SquareID    string
	Direction   lmsr.Direction
	Shares      float64
	Cost        int64
	PriceYes    float64
	DateCreated string
}

// SqliteStore owns the share inventory for every board. Trades run inside an
// exclusive transaction, so concurrent orders against the same square are
// priced one after the other.
type SqliteStore struct {
	db *sql.DB
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func NewSqliteStore(dbName string) (*SqliteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_txlock=exclusive&_busy_timeout=5000", dbName)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

// CreateBoard creates a board with nine unpriced squares and returns its id.
func (s *SqliteStore) CreateBoard(ctx context.Context, description string, liquidity float64) (string, error) {
	if !(liquidity > 0) {
		return "", fmt.Errorf("%w: liquidity must be positive, got %v", lmsr.ErrInvalidParameter, liquidity)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	boardUUID := shortuuid.New()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO boards (uuid, description, liquidity, date_created)
		VALUES (?, ?, ?, ?)`, boardUUID, description, liquidity, now())
	if err != nil {
		return "", err
	}
	boardID, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	for i := 0; i < bingo.NumSquares; i++ {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO squares (uuid, board_id, idx)
			VALUES (?, ?, ?)`, shortuuid.New(), boardID, i)
		if err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	log.Info().Str("boardID", boardUUID).Float64("liquidity", liquidity).Msg("created-board")
	return boardUUID, nil
}

func scanSquare(row interface{ Scan(...any) error }) (*Square, error) {
	sq := &Square{}
	var lastPrice sql.NullFloat64
	err := row.Scan(&sq.ID, &sq.Index, &sq.YesShares, &sq.NoShares, &sq.Liquidity, &lastPrice)
	if err != nil {
		return nil, err
	}
	if lastPrice.Valid {
		p := lastPrice.Float64
		sq.LastPrice = &p
	}
	return sq, nil
}

const squareColumns = `squares.uuid, squares.idx, squares.yes_shares,
	squares.no_shares, boards.liquidity, squares.last_price`

func (s *SqliteStore) GetBoard(ctx context.Context, boardUUID string) (*Board, error) {
	b := &Board{}
	err := s.db.QueryRowContext(ctx, `
		SELECT uuid, description, liquidity, date_created
		FROM boards WHERE uuid = ?`, boardUUID).Scan(
		&b.ID, &b.Description, &b.Liquidity, &b.DateCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, boardUUID)
	} else if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+squareColumns+`
		FROM squares
		JOIN boards ON squares.board_id = boards.id
		WHERE boards.uuid = ?
		ORDER BY squares.idx`, boardUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		sq, err := scanSquare(rows)
		if err != nil {
			return nil, err
		}
		b.Squares = append(b.Squares, sq)
	}
	return b, rows.Err()
}

func (s *SqliteStore) GetSquare(ctx context.Context, squareUUID string) (*Square, error) {
	sq, err := scanSquare(s.db.QueryRowContext(ctx, `
		SELECT `+squareColumns+`
		FROM squares
		JOIN boards ON squares.board_id = boards.id
		WHERE squares.uuid = ?`, squareUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSquareNotFound, squareUUID)
	}
	return sq, err
}

// QuoteOrder prices a buy against the current inventory without executing it.
func (s *SqliteStore) QuoteOrder(ctx context.Context, squareUUID string,
	dir lmsr.Direction, shares float64) (int64, error) {

	sq, err := s.GetSquare(ctx, squareUUID)
	if err != nil {
		return 0, err
	}
	return lmsr.BuyCost(sq.YesShares, sq.NoShares, dir, shares, sq.Liquidity)
}

// FulfillOrder buys shares on one side of a square. The inventory read, the
// cost, the share update and the order record all happen in one exclusive
// transaction.
func (s *SqliteStore) FulfillOrder(ctx context.Context, squareUUID string,
	dir lmsr.Direction, shares float64) (*Order, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var squareID int64
	var yes, no, liquidity float64
	err = tx.QueryRowContext(ctx, `
		SELECT squares.id, squares.yes_shares, squares.no_shares, boards.liquidity
		FROM squares
		JOIN boards ON squares.board_id = boards.id
		WHERE squares.uuid = ?`, squareUUID).Scan(&squareID, &yes, &no, &liquidity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSquareNotFound, squareUUID)
	} else if err != nil {
		return nil, err
	}

	cost, err := lmsr.BuyCost(yes, no, dir, shares, liquidity)
	if err != nil {
		return nil, err
	}
	if dir == lmsr.Yes {
		yes += shares
	} else {
		no += shares
	}
	newPrice, err := lmsr.PriceYes(yes, no, liquidity)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE squares
		SET yes_shares = ?, no_shares = ?, last_price = ?
		WHERE id = ?`, yes, no, newPrice, squareID)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:          shortuuid.New(),
		SquareID:    squareUUID,
		Direction:   dir,
		Shares:      shares,
		Cost:        cost,
		PriceYes:    newPrice,
		DateCreated: now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (uuid, square_id, direction, shares, cost, price_yes, date_created)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, squareID, dir.String(), shares, cost, newPrice, order.DateCreated)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	log.Debug().Str("squareID", squareUUID).Str("direction", dir.String()).
		Float64("shares", shares).Int64("cost", cost).Float64("priceYes", newPrice).
		Msg("fulfilled-order")
	return order, nil
}

// GetOrders lists the orders on a square, oldest first.
func (s *SqliteStore) GetOrders(ctx context.Context, squareUUID string) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT orders.uuid, orders.direction, orders.shares, orders.cost,
		orders.price_yes, orders.date_created
		FROM orders
		JOIN squares ON orders.square_id = squares.id
		WHERE squares.uuid = ?
		ORDER BY orders.id`, squareUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []*Order{}
	for rows.Next() {
		o := &Order{SquareID: squareUUID}
		var dir string
		err = rows.Scan(&o.ID, &dir, &o.Shares, &o.Cost, &o.PriceYes, &o.DateCreated)
		if err != nil {
			return nil, err
		}
		if o.Direction, err = lmsr.ParseDirection(dir); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
