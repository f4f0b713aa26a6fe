package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"priceScope/internal/storage"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	deltasTable = "store_deltas"
	valuesTable = "store_values"
	stateTable  = "indexer_state"
)

const schema = `
CREATE TABLE IF NOT EXISTS store_deltas (
	block_number BIGINT NOT NULL,
	block_hash   TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	store        TEXT NOT NULL,
	key          TEXT NOT NULL,
	ordinal      BIGINT NOT NULL,
	operation    TEXT NOT NULL,
	old_value    TEXT,
	new_value    TEXT NOT NULL,
	PRIMARY KEY (block_number, seq)
);
CREATE TABLE IF NOT EXISTS store_values (
	store        TEXT NOT NULL,
	key          TEXT NOT NULL,
	value        TEXT NOT NULL,
	block_number BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (store, key)
);
CREATE TABLE IF NOT EXISTS indexer_state (
	name        TEXT PRIMARY KEY,
	last_block  BIGINT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store persists committed deltas and the latest value of every key.
type Store struct {
	pool      *pgxpool.Pool
	stateName string
}

func NewStore(ctx context.Context, dsn string, stateName string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, stateName: stateName}, nil
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Publish writes the batch in one transaction: the delta log, the latest
// values and the processed height.
func (s *Store) Publish(ctx context.Context, batch storage.BlockDeltas) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	queued := &pgx.Batch{}
	for i, d := range batch.Deltas {
		var old any
		if d.OldValue != nil {
			old = string(d.OldValue)
		}
		sqlText, args, err := psql.
			Insert(deltasTable).
			Columns("block_number", "block_hash", "seq", "store", "key", "ordinal", "operation", "old_value", "new_value").
			Values(int64(batch.BlockNumber), batch.BlockHash, i, d.Store, d.Key, int64(d.Ordinal), string(d.Operation), old, string(d.NewValue)).
			Suffix("ON CONFLICT (block_number, seq) DO NOTHING").
			ToSql()
		if err != nil {
			return err
		}
		queued.Queue(sqlText, args...)

		sqlText, args, err = psql.
			Insert(valuesTable).
			Columns("store", "key", "value", "block_number").
			Values(d.Store, d.Key, string(d.NewValue), int64(batch.BlockNumber)).
			Suffix("ON CONFLICT (store, key) DO UPDATE SET value = EXCLUDED.value, block_number = EXCLUDED.block_number, updated_at = now()").
			ToSql()
		if err != nil {
			return err
		}
		queued.Queue(sqlText, args...)
	}

	if queued.Len() > 0 {
		br := tx.SendBatch(ctx, queued)
		for i := 0; i < queued.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("write deltas: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
	}

	if s.stateName != "" {
		if err := saveState(ctx, tx, s.stateName, batch.BlockNumber); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// LoadState returns the last processed block recorded under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	sqlText, args, err := psql.Select("last_block").From(stateTable).Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return 0, false, err
	}
	var block int64
	if err := s.pool.QueryRow(ctx, sqlText, args...).Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveState(ctx context.Context, db execer, name string, block uint64) error {
	sqlText, args, err := psql.
		Insert(stateTable).
		Columns("name", "last_block").
		Values(name, int64(block)).
		Suffix("ON CONFLICT (name) DO UPDATE SET last_block = EXCLUDED.last_block, updated_at = now()").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := db.Exec(ctx, sqlText, args...); err != nil {
		return fmt.Errorf("save state %s: %w", name, err)
	}
	return nil
}
