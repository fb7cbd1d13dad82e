// Package directory provides the customer and ticket store behind the triage
// pipeline. The Postgres implementation is the production backend; the
// in-memory one serves demos and tests.
package directory

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Config struct {
	DSN          string        `envconfig:"DSN" required:"true"`
	PingTimeout  time.Duration `envconfig:"PING_TIMEOUT" default:"5s"`
	MaxOpenConns int           `envconfig:"MAX_OPEN_CONNS" default:"8"`
}

// Connect opens a bun handle over pgdriver and verifies connectivity before
// returning.
func Connect(ctx context.Context, cfg Config) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}
