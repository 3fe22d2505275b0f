package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"expense-bot/pkg/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Open connects to the configured store, runs migrations and returns a
// database/sql handle together with the dialect repositories must build for.
func Open(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, Dialect{}, err
		}
		logger.Info("Database connection established",
			zap.String("driver", "sqlite"),
			zap.String("path", cfg.Path),
		)
		return db, SQLite, nil
	case "postgres", "":
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, Dialect{}, err
		}
		logger.Info("Database connection established",
			zap.String("driver", "postgres"),
			zap.String("host", cfg.Host),
			zap.String("database", cfg.DBName),
		)
		return db, Postgres, nil
	default:
		return nil, Dialect{}, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if err := Migrate(ctx, db, Postgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file and migrates it.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// sqlite time format keeps stored dates sortable and readable by date functions
	db, err := sql.Open("sqlite", path+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; sqlite serializes anyway and this avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := Migrate(ctx, db, SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
