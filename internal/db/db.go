package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps pgxpool.Pool for the settings store
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new DB connection pool
func NewDB(url string) (*DB, error) {
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		return nil, err
	}
	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (d *DB) Close(ctx context.Context) error {
	d.pool.Close()
	return nil
}

// Pool returns the underlying pgxpool.Pool
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// EnsureSchema creates the settings tables when they are missing
func (d *DB) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id serial PRIMARY KEY,
			username varchar(64) UNIQUE NOT NULL,
			password varchar(128) NOT NULL,
			email varchar(128)
		)`,
		`CREATE TABLE IF NOT EXISTS sensor_thresholds (
			sensor_id varchar(128) PRIMARY KEY,
			threshold_value double precision NOT NULL,
			unit varchar(32) NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS telegram_settings (
			id integer PRIMARY KEY DEFAULT 1,
			bot_token varchar(128) NOT NULL DEFAULT '',
			chat_id varchar(64) NOT NULL DEFAULT '',
			enabled boolean NOT NULL DEFAULT false
		)`,
	}
	for _, stmt := range statements {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
