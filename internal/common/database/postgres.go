package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bizmatch-workers/internal/common/config"
	"bizmatch-workers/internal/common/errors"

	_ "github.com/lib/pq"
)

// PostgresClient holds the pool the catalog loader reads from. The pool is
// small; the catalog is read once at startup and /ready pings it afterwards.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a lazy pool; call Ping to verify connectivity.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return nil, errors.NewDatabaseConnectionFailedError(fmt.Errorf("postgres host and database are required"))
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping fails with DATABASE_CONNECTION_FAILED.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.NewDatabaseConnectionFailedError(err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c == nil || c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.DB
}
