package config

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	driverName               = "postgres"
	defaultHealthCheckPeriod = time.Minute
	defaultConnectTimeout    = 5 * time.Second
)

var ErrOpeningDatabaseFailed = errors.New("opening database failed")

// NewPGXPool creates a tuned pgx pool for dsn. The pool connects lazily.
func NewPGXPool(ctx context.Context, dsn string, pool PoolConfig) (*pgxpool.Pool, error) {
	dbConfig, err := PGXPoolConfig(dsn, pool)
	if err != nil {
		return nil, err
	}

	db, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	return db, nil
}

// PGXPoolConfig parses dsn and applies the pool settings.
func PGXPoolConfig(dsn string, pool PoolConfig) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	dbConfig.MaxConns = int32(pool.MaxConns) //nolint:gosec // validated small positive value
	dbConfig.MinConns = int32(pool.MinConns) //nolint:gosec // validated small positive value
	dbConfig.MaxConnLifetime = pool.MaxConnLifetime
	dbConfig.MaxConnIdleTime = pool.MaxConnIdleTime
	dbConfig.HealthCheckPeriod = defaultHealthCheckPeriod
	dbConfig.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return dbConfig, nil
}

// NewSQLDB opens a tuned database/sql handle on the lib/pq driver.
// It does not ping, so an unreachable partition does not block the others.
func NewSQLDB(dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.Join(ErrOpeningDatabaseFailed, err)
	}

	tune(db, pool)

	return db, nil
}

// NewSQLX wraps a NewSQLDB handle for sqlx.
func NewSQLX(dsn string, pool PoolConfig) (*sqlx.DB, error) {
	db, err := NewSQLDB(dsn, pool)
	if err != nil {
		return nil, err
	}

	return sqlx.NewDb(db, driverName), nil
}

func tune(db *sql.DB, pool PoolConfig) {
	db.SetMaxOpenConns(pool.MaxConns)
	db.SetMaxIdleConns(max(pool.MinConns, 1))
	db.SetConnMaxLifetime(pool.MaxConnLifetime)
	db.SetConnMaxIdleTime(pool.MaxConnIdleTime)
}
