// Package balancedb keeps per-actor currency balances durable across server
// restarts. It is a mirror of the in-memory ledger, not a participant in
// transactions: the market loop applies a mutation first and the new value
// is upserted here by a dedicated writer goroutine.
package balancedb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"shopcraft.gg/internal/market/feature/ledger"
)

type Store struct {
	db *sql.DB

	ch   chan ledger.Entry
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{
		db: db,
		// Generous buffer: balance writes are tiny and bursty around
		// reconciliation sweeps.
		ch: make(chan ledger.Entry, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS balances (
		actor_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);`)
	return err
}

// Sink returns the channel the ledger mirrors into.
func (s *Store) Sink() chan<- ledger.Entry { return s.ch }

// Put enqueues one upsert without blocking; entries are dropped if the
// writer falls behind, and the next reconciliation re-mirrors the value.
func (s *Store) Put(actorID string, balance int64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- ledger.Entry{ActorID: actorID, Balance: balance}:
	default:
	}
}

// LoadAll reads every stored balance, for seeding the ledger at startup.
func (s *Store) LoadAll(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT actor_id, balance FROM balances`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var actor string
		var bal int64
		if err := rows.Scan(&actor, &bal); err != nil {
			return nil, err
		}
		out[actor] = bal
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *Store) loop() {
	for e := range s.ch {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		_, err := s.db.Exec(
			`INSERT INTO balances (actor_id, balance, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(actor_id) DO UPDATE SET balance=excluded.balance, updated_at=excluded.updated_at`,
			e.ActorID, e.Balance, now,
		)
		_ = err // writer is best-effort; the ledger stays authoritative
	}
}
