// Package database manages the sqlite definition database: connection
// lifecycle and schema migrations. The definition datasets ship as a single
// sqlite file, so there is no connection pool tuning beyond what
// database/sql provides.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Config holds definition database configuration.
type Config struct {
	Path string
}

// DB wraps the sql.DB handle with logging.
type DB struct {
	Conn *sql.DB
	log  *logrus.Logger
	path string
}

// NewConnection opens (creating if necessary) the sqlite definition
// database at the configured path.
func NewConnection(ctx context.Context, config Config, logger *logrus.Logger) (*DB, error) {
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("opening definition database: %w", err)
	}

	// WAL keeps concurrent readers cheap; composition only ever reads.
	if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("pinging definition database: %w", err)
	}

	logger.WithField("path", config.Path).Info("Definition database opened")

	return &DB{Conn: conn, log: logger, path: config.Path}, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	db.log.WithField("path", db.path).Debug("Closing definition database")
	return db.Conn.Close()
}

// HealthCheck verifies the database is reachable.
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.Conn.PingContext(ctx); err != nil {
		return fmt.Errorf("definition database health check failed: %w", err)
	}
	return nil
}
