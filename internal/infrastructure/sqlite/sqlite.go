package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/architeacher/specifications/internal/config"
	_ "modernc.org/sqlite" // SQLite driver
)

const driverName = "sqlite"

// DSN enables WAL journaling and the configured busy timeout.
func DSN(cfg config.SQLite) string {
	query := url.Values{}
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", cfg.BusyTimeout.Milliseconds()))
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "foreign_keys(1)")

	return "file:" + cfg.Path + "?" + query.Encode()
}

func Open(ctx context.Context, cfg config.SQLite) (*sql.DB, error) {
	db, err := sql.Open(driverName, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("pinging sqlite database: %w", err)
	}

	return db, nil
}
