package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder syntax.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// DB is a database/sql handle plus the dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
}

// Open connects to Postgres for postgres:// DSNs and to SQLite otherwise,
// then creates the journal schema when missing.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	var db *DB
	var err error
	if isPostgres(cfg.DSN) {
		db, err = openPostgres(ctx, cfg)
	} else {
		db, err = openSQLite(cfg)
	}
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	if err := db.migrate(ctx); err != nil {
		_ = db.Close()
		logger.Error("failed to migrate database", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to database", "dialect", db.Dialect)
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func openPostgres(ctx context.Context, cfg Config) (*DB, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "criteria-extractor"

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{DB: stdlib.OpenDBFromPool(pool), Dialect: DialectPostgres, pool: pool}, nil
}

func openSQLite(cfg Config) (*DB, error) {
	path := strings.TrimPrefix(cfg.DSN, "sqlite://")
	if path == "" {
		path = ":memory:"
	}
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps :memory: databases on a single connection
	sqldb.SetMaxOpenConns(1)
	return &DB{DB: sqldb, Dialect: DialectSQLite}, nil
}

// Close closes the database connections gracefully
func (d *DB) Close() error {
	err := d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}

// Bind returns the n-th (1-based) placeholder for the dialect.
func (d *DB) Bind(n int) string {
	if d.Dialect == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

const schemaEnrichRun = `CREATE TABLE IF NOT EXISTS enrich_run (
	id            TEXT PRIMARY KEY,
	batch_id      TEXT NOT NULL,
	source_path   TEXT NOT NULL,
	output_path   TEXT NOT NULL DEFAULT '',
	id_domanda    TEXT NOT NULL DEFAULT '',
	soggetto      TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	http_status   INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TEXT NOT NULL,
	finished_at   TEXT NOT NULL
)`

const indexEnrichRunBatch = `CREATE INDEX IF NOT EXISTS enrich_run_batch_idx ON enrich_run (batch_id)`

func (d *DB) migrate(ctx context.Context) error {
	for _, stmt := range []string{schemaEnrichRun, indexEnrichRunBatch} {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// HealthCheck pings the database.
func HealthCheck(ctx context.Context, db *DB, timeout time.Duration, logger *slog.Logger) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
