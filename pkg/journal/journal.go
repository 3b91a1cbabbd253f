package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/polyterm/polyterm/clob/types"
)

// Journal is a local sqlite log of order activity, powering the
// terminal app's history view. Writes are best-effort from the
// gateway's perspective; a journal failure never fails a trade.
type Journal struct {
	db *sql.DB
}

// Entry is one journaled order event.
type Entry struct {
	ID        string
	OrderID   string
	TokenID   string
	Action    string // placed | cancelled
	Side      string
	Price     float64
	Size      float64
	Status    string
	CreatedAt time.Time
}

// Open opens (or creates) the journal DB at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the DB.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS order_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  token_id TEXT NOT NULL,
  action TEXT NOT NULL,
  side TEXT NOT NULL,
  price REAL NOT NULL,
  size REAL NOT NULL,
  status TEXT NOT NULL,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_order_events_created ON order_events(created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("journal migrate: %w", err)
		}
	}
	return nil
}

// RecordPlacement journals a successful order placement.
func (j *Journal) RecordPlacement(ctx context.Context, po *types.PlacedOrder) error {
	_, err := j.db.ExecContext(ctx, `
INSERT INTO order_events (id,order_id,token_id,action,side,price,size,status,created_at)
VALUES (?,?,?,?,?,?,?,?,?)
`, uuid.NewString(), po.OrderID, po.TokenID, "placed", string(po.Side),
		po.Price, po.OriginalSize, string(po.Status), po.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// RecordCancel journals a confirmed cancellation.
func (j *Journal) RecordCancel(ctx context.Context, orderID string) error {
	_, err := j.db.ExecContext(ctx, `
INSERT INTO order_events (id,order_id,token_id,action,side,price,size,status,created_at)
VALUES (?,?,?,?,?,?,?,?,?)
`, uuid.NewString(), orderID, "", "cancelled", "", 0.0, 0.0,
		string(types.StatusCancelled), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Recent returns the latest events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id,order_id,token_id,action,side,price,size,status,created_at
FROM order_events ORDER BY created_at DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.OrderID, &e.TokenID, &e.Action, &e.Side, &e.Price, &e.Size, &e.Status, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
