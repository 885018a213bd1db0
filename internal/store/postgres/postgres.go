package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hamed0406/monitor247/internal/domain"
	"github.com/hamed0406/monitor247/internal/store"
)

// Store implements the snapshot contract on postgres. The whole state lives
// in a single jsonb row; Mutate locks it with SELECT ... FOR UPDATE, so the
// serialization guarantee holds even across multiple processes.
type Store struct {
	pool *pgxpool.Pool
}

const (
	schemaSQL = `CREATE TABLE IF NOT EXISTS monitor_state (
		id    smallint PRIMARY KEY,
		state jsonb NOT NULL
	)`
	stateRow = 1
)

func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensure(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) ensure(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	seed, err := json.Marshal(store.Seed(domain.NowMillis()))
	if err != nil {
		return fmt.Errorf("encode seed: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO monitor_state (id, state) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		stateRow, seed)
	if err != nil {
		return fmt.Errorf("seed state: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	var b []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM monitor_state WHERE id = $1`, stateRow).Scan(&b)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &snap, nil
}

func (s *Store) Mutate(ctx context.Context, fn func(*domain.Snapshot) error) (*domain.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var b []byte
	err = tx.QueryRow(ctx,
		`SELECT state FROM monitor_state WHERE id = $1 FOR UPDATE`, stateRow).Scan(&b)
	if err != nil {
		return nil, fmt.Errorf("lock state: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	if err := fn(&snap); err != nil {
		return nil, err
	}

	out, err := json.Marshal(&snap)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE monitor_state SET state = $2 WHERE id = $1`, stateRow, out); err != nil {
		return nil, fmt.Errorf("write state: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &snap, nil
}
