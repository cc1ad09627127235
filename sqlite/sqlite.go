// Package sqlite provides SQLite-based storage for articles.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB represents a SQLite database connection.
type DB struct {
	db   *sql.DB
	path string
}

// NewDB creates a new DB instance with the given path.
// Use ":memory:" for an in-memory database.
func NewDB(path string) *DB {
	return &DB{path: path}
}

// Open opens the database connection and creates the schema if needed.
func (db *DB) Open() error {
	conn, err := sql.Open("sqlite3", db.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	// This also keeps a ":memory:" database alive across queries.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait on lock contention instead of failing with "database is locked".
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// WAL is not supported for in-memory databases.
	if db.path != ":memory:" {
		if _, err := conn.Exec("PRAGMA journal_mode = WAL"); err != nil {
			conn.Close()
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	db.db = conn

	if err := db.createSchema(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// QueryRowContext executes a query that returns a single row.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement that doesn't return rows.
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// createSchema creates the tables, indexes and full-text index if they don't exist.
//
// articles_fts is an external-content FTS5 table over title and content kept
// in sync by triggers. It is keyed on seq because the implicit rowid of a
// table may change on VACUUM.
func (db *DB) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS articles (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL DEFAULT '',
			publish_date TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			scraped_at TEXT NOT NULL,
			analyzed_at TEXT,
			summary TEXT,
			entities TEXT,
			classification TEXT,
			sentiment_score INTEGER,
			extraction_method TEXT NOT NULL DEFAULT '',
			truncated INTEGER NOT NULL DEFAULT 0,
			original_length INTEGER NOT NULL DEFAULT 0,
			model TEXT NOT NULL DEFAULT '',
			processing_time_seconds REAL NOT NULL DEFAULT 0,
			error_kind TEXT,
			error_message TEXT,
			failed_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_articles_listing ON articles(publish_date DESC, classification, sentiment_score);
		CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
		CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);

		CREATE VIRTUAL TABLE IF NOT EXISTS articles_fts USING fts5(
			title, content, content='articles', content_rowid='seq'
		);

		CREATE TRIGGER IF NOT EXISTS articles_fts_insert AFTER INSERT ON articles BEGIN
			INSERT INTO articles_fts(rowid, title, content) VALUES (new.seq, new.title, new.content);
		END;

		CREATE TRIGGER IF NOT EXISTS articles_fts_delete AFTER DELETE ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES ('delete', old.seq, old.title, old.content);
		END;

		CREATE TRIGGER IF NOT EXISTS articles_fts_update AFTER UPDATE OF title, content ON articles BEGIN
			INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES ('delete', old.seq, old.title, old.content);
			INSERT INTO articles_fts(rowid, title, content) VALUES (new.seq, new.title, new.content);
		END;
	`

	_, err := db.db.Exec(schema)
	return err
}
