package cache

import (
	"context"
	"database/sql"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"
)

type sqliteArea struct {
	db           *sql.DB
	ctx          context.Context
	queryTimeout time.Duration
	once         sync.Once
}

var _ Area = (*sqliteArea)(nil)

// NewSQLiteArea returns an Area backed by SQLite, which survives process
// restarts when dbPath names a file. If dbPath is empty or ":memory:", an
// in-memory database is used.
func NewSQLiteArea(ctx context.Context, dbPath string, opts ...Option) (Area, error) {
	cfg := applyOptions(opts)
	if dbPath == "" {
		dbPath = ":memory:"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening sqlite database %s", dbPath)
	}
	// An in-memory database exists per connection, so pin the pool to one.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	a := &sqliteArea{db: db, ctx: ctx, queryTimeout: cfg.queryTimeout}
	if err := a.init(); err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

func (a *sqliteArea) init() error {
	qctx, cancel := queryCtx(a.ctx, a.queryTimeout)
	defer cancel()

	// Enable WAL mode for better concurrent performance.
	if _, err := a.db.ExecContext(qctx, "PRAGMA journal_mode=WAL"); err != nil {
		return errors.Wrap(err, "enabling wal mode")
	}
	if _, err := a.db.ExecContext(qctx, `CREATE TABLE IF NOT EXISTS items (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return errors.Wrap(err, "creating items table")
	}
	return nil
}

func (a *sqliteArea) GetItem(ctx context.Context, key string) (string, bool, error) {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	var val string
	err := a.db.QueryRowContext(qctx, `SELECT value FROM items WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "reading %s", key)
	}
	return val, true, nil
}

func (a *sqliteArea) SetItem(ctx context.Context, key string, val string) error {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	_, err := a.db.ExecContext(qctx,
		`INSERT INTO items (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, val,
	)
	if err != nil {
		return errors.Wrapf(err, "writing %s", key)
	}
	return nil
}

func (a *sqliteArea) RemoveItem(ctx context.Context, key string) error {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	if _, err := a.db.ExecContext(qctx, `DELETE FROM items WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "removing %s", key)
	}
	return nil
}

func (a *sqliteArea) Keys(ctx context.Context, prefix string) ([]string, error) {
	qctx, cancel := queryCtx(ctx, a.queryTimeout)
	defer cancel()
	// substr rather than LIKE: the default prefix contains '_' which LIKE treats as a wildcard.
	rows, err := a.db.QueryContext(qctx,
		`SELECT key FROM items WHERE substr(key, 1, ?) = ? ORDER BY key`,
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return nil, errors.Wrap(err, "listing keys")
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, errors.Wrap(err, "scanning key")
		}
		keys = append(keys, k)
	}
	return keys, errors.Wrap(rows.Err(), "listing keys")
}

func (a *sqliteArea) Close() error {
	var dbErr error
	a.once.Do(func() {
		dbErr = a.db.Close()
	})
	return dbErr
}
