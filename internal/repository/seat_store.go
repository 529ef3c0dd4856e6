package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/cinema-booking/internal/booking"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// SeatStore is the MySQL-backed inventory and ledger.  It implements
// booking.Store and booking.Ledger over three tables: seats (one row per
// grid position), orders and order_seats (append-only), plus a sequence
// table backing order identifiers.
//
// The claim protocol relies on InnoDB row locks: Hold opens a transaction
// and selects the target rows with FOR UPDATE SKIP LOCKED, so a seat row
// locked by another in-flight claim is simply not returned and counts as
// unavailable rather than blocking the caller.  The transaction stays
// open until Confirm (books the seats and writes the order, then commits)
// or Release (rolls back, dropping the locks).
type SeatStore struct {
	db *sql.DB
}

// NewSeatStore returns a SeatStore bound to the given database.
func NewSeatStore(db *sql.DB) *SeatStore { return &SeatStore{db: db} }

// DB exposes the underlying handle for schema setup and health checks.
func (s *SeatStore) DB() *sql.DB { return s.db }

// EnsureSchema creates the tables when they do not exist yet.  Kept
// idempotent so repeated startups are safe.
func (s *SeatStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS seats (
			id         VARCHAR(8)  NOT NULL PRIMARY KEY,
			row_label  VARCHAR(4)  NOT NULL,
			col_no     INT UNSIGNED NOT NULL,
			category   VARCHAR(16) NOT NULL,
			status     VARCHAR(16) NOT NULL DEFAULT 'FREE',
			UNIQUE KEY uq_seats_row_col (row_label, col_no)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS orders (
			seq               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			order_no          VARCHAR(16) NOT NULL UNIQUE,
			customer          VARCHAR(191) NOT NULL,
			movie             VARCHAR(191) NOT NULL DEFAULT '',
			mode              VARCHAR(8)  NOT NULL,
			selection_seconds DOUBLE NULL,
			created_at        DATETIME NOT NULL
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS order_seats (
			order_no VARCHAR(16) NOT NULL,
			seat_id  VARCHAR(8)  NOT NULL,
			PRIMARY KEY (order_no, seat_id),
			UNIQUE KEY uq_order_seats_seat (seat_id)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS order_sequence (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY
		) ENGINE=InnoDB`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// SeedGrid inserts the grid rows, skipping seats that already exist so
// occupancy survives restarts.
func (s *SeatStore) SeedGrid(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO seats (id, row_label, col_no, category, status) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, seat.ID, seat.Row, seat.Col, seat.Category, model.SeatFree)
	}
	_, err := s.db.ExecContext(ctx, query, args...)
	return err
}

const seatColumns = `id, row_label, col_no, category, status`

// Seats returns the full grid with occupancy in row/column order.
func (s *SeatStore) Seats(ctx context.Context) ([]model.Seat, error) {
	return s.querySeats(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY row_label, col_no`)
}

// FreeSeats returns the claimable seats in row/column order.  Rows locked
// by an in-flight claim still read as FREE here; the claim step is the
// authoritative filter.
func (s *SeatStore) FreeSeats(ctx context.Context) ([]model.Seat, error) {
	return s.querySeats(ctx, `SELECT `+seatColumns+` FROM seats WHERE status = 'FREE' ORDER BY row_label, col_no`)
}

func (s *SeatStore) querySeats(ctx context.Context, query string, args ...interface{}) ([]model.Seat, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var seat model.Seat
		if err := rows.Scan(&seat.ID, &seat.Row, &seat.Col, &seat.Category, &seat.Status); err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// Hold locks the requested seat rows and verifies every one of them is
// FREE.  Rows locked elsewhere are skipped by the SELECT and therefore
// show up as conflicts, as do booked or unknown ids.  On any conflict the
// transaction is rolled back and nothing stays claimed.
func (s *SeatStore) Hold(ctx context.Context, seatIDs []string) (booking.Claim, error) {
	if len(seatIDs) == 0 {
		return nil, &booking.SeatUnavailableError{}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	query := `SELECT id, status FROM seats WHERE id IN (` + placeholders + `) FOR UPDATE SKIP LOCKED`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	locked := make(map[string]string, len(seatIDs))
	for rows.Next() {
		var id, status string
		if scanErr := rows.Scan(&id, &status); scanErr != nil {
			rows.Close()
			_ = tx.Rollback()
			return nil, scanErr
		}
		locked[id] = status
	}
	if err := rows.Close(); err != nil {
		_ = tx.Rollback()
		return nil, err
	}

	var conflicts []string
	for _, id := range seatIDs {
		if locked[id] != model.SeatFree {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		_ = tx.Rollback()
		return nil, &booking.SeatUnavailableError{SeatIDs: conflicts}
	}
	return &sqlClaim{tx: tx, seatIDs: seatIDs}, nil
}

// NextOrderID draws from the sequence table.  AUTO_INCREMENT never hands
// the same value to two callers, so identifiers stay unique and strictly
// increasing even under concurrent issuance.  An identifier consumed by
// an attempt that later aborts leaves a gap, which is fine.
func (s *SeatStore) NextOrderID(ctx context.Context) (string, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO order_sequence () VALUES ()`)
	if err != nil {
		return "", err
	}
	n, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}

// OrdersByCustomer assembles the customer's orders with their seat lists,
// newest first.
func (s *SeatStore) OrdersByCustomer(ctx context.Context, customer string) ([]model.Order, error) {
	const q = `SELECT order_no, customer, movie, mode, selection_seconds, created_at
	           FROM orders WHERE customer = ? ORDER BY seq DESC`
	rows, err := s.db.QueryContext(ctx, q, customer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := make([]model.Order, 0)
	index := make(map[string]int)
	for rows.Next() {
		var o model.Order
		var selSecs sql.NullFloat64
		if err := rows.Scan(&o.ID, &o.Customer, &o.Movie, &o.Mode, &selSecs, &o.CreatedAt); err != nil {
			return nil, err
		}
		if selSecs.Valid {
			v := selSecs.Float64
			o.SelectionSeconds = &v
		}
		o.Seats = []string{}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}
	// Fetch seats for all orders in one query.
	ids := make([]interface{}, 0, len(orders))
	placeholders := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT order_no, seat_id FROM order_seats
	          WHERE order_no IN (` + strings.Join(placeholders, ",") + `) ORDER BY order_no, seat_id`
	srows, err := s.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var orderNo, seatID string
		if err := srows.Scan(&orderNo, &seatID); err != nil {
			return nil, err
		}
		if i, ok := index[orderNo]; ok {
			orders[i].Seats = append(orders[i].Seats, seatID)
		}
	}
	return orders, srows.Err()
}

// sqlClaim carries the open claim transaction.  Row locks taken by Hold
// are the hold; there is no separate status flip until Confirm.
type sqlClaim struct {
	tx      *sql.Tx
	seatIDs []string
}

// Confirm books the locked seats and appends the order in the same
// transaction, so the seat transition and the ledger record commit as one
// unit: a failure before commit leaves neither behind.
func (c *sqlClaim) Confirm(ctx context.Context, order *model.Order) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(c.seatIDs)), ",")
	args := make([]interface{}, 0, len(c.seatIDs))
	for _, id := range c.seatIDs {
		args = append(args, id)
	}
	if _, err := c.tx.ExecContext(ctx,
		`UPDATE seats SET status = 'BOOKED' WHERE id IN (`+placeholders+`)`, args...); err != nil {
		_ = c.tx.Rollback()
		return err
	}

	var selSecs sql.NullFloat64
	if order.SelectionSeconds != nil {
		selSecs = sql.NullFloat64{Float64: *order.SelectionSeconds, Valid: true}
	}
	if _, err := c.tx.ExecContext(ctx,
		`INSERT INTO orders (order_no, customer, movie, mode, selection_seconds, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID, order.Customer, order.Movie, order.Mode, selSecs,
		order.CreatedAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
		_ = c.tx.Rollback()
		return err
	}

	seatQ := `INSERT INTO order_seats (order_no, seat_id) VALUES `
	seatArgs := make([]interface{}, 0, len(c.seatIDs)*2)
	for i, id := range c.seatIDs {
		if i > 0 {
			seatQ += ","
		}
		seatQ += "(?, ?)"
		seatArgs = append(seatArgs, order.ID, id)
	}
	if _, err := c.tx.ExecContext(ctx, seatQ, seatArgs...); err != nil {
		_ = c.tx.Rollback()
		return err
	}
	return c.tx.Commit()
}

// Release rolls the claim back, dropping the row locks.  Calling it after
// Confirm already resolved the transaction is a no-op.
func (c *sqlClaim) Release(ctx context.Context) error {
	if err := c.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}
