// Package database provides the sqlx-backed persistence layer: connection
// management, schema bootstrap and one repository per aggregate.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the shared database handle, set by Connect.
var DB *sqlx.DB

var dbType string

// Connect opens the database selected by DB_TYPE ("sqlite", the default,
// or "postgres" with DATABASE_URL) and bootstraps the schema.
func Connect() error {
	dbType = os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	switch dbType {
	case "sqlite":
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err := sqlx.Connect("sqlite3", filepath.Join(dataDir, "legendas.db"))
		if err != nil {
			return fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		DB = db

	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
		db, err := sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		DB = db

	default:
		return fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	return initializeSchema()
}

// Close closes the database connection.
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// IsPostgres reports whether the active backend is PostgreSQL. Repositories
// use it to pick between ON CONFLICT upserts and select-then-write.
func IsPostgres() bool {
	return dbType == "postgres"
}

// initializeSchema creates the tables if they don't exist.
func initializeSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			is_admin BOOLEAN DEFAULT false,
			telegram_chat_id INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS shows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			broadcaster TEXT,
			url TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			show_id INTEGER NOT NULL,
			season INTEGER DEFAULT 0,
			number INTEGER DEFAULT 0,
			title TEXT,
			source_url TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (show_id) REFERENCES shows(id)
		)`,
		`CREATE TABLE IF NOT EXISTS extractions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			episode_id INTEGER NOT NULL,
			model TEXT,
			status TEXT DEFAULT 'pending',
			phrase_count INTEGER DEFAULT 0,
			error TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (episode_id) REFERENCES episodes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS phrases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			extraction_id INTEGER NOT NULL,
			episode_id INTEGER NOT NULL,
			portuguese TEXT NOT NULL,
			english TEXT NOT NULL,
			context TEXT DEFAULT '',
			start_ms INTEGER DEFAULT 0,
			end_ms INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (extraction_id) REFERENCES extractions(id),
			FOREIGN KEY (episode_id) REFERENCES episodes(id)
		)`,
		`CREATE TABLE IF NOT EXISTS card_studies (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			phrase_id INTEGER NOT NULL,
			direction TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'new',
			due TIMESTAMP NOT NULL,
			stability REAL DEFAULT 0,
			difficulty REAL DEFAULT 0,
			elapsed_days REAL DEFAULT 0,
			scheduled_days REAL DEFAULT 0,
			reps INTEGER DEFAULT 0,
			lapses INTEGER DEFAULT 0,
			last_review TIMESTAMP,
			last_rating INTEGER DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (phrase_id) REFERENCES phrases(id),
			UNIQUE(user_id, phrase_id, direction)
		)`,
		`CREATE TABLE IF NOT EXISTS study_sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			episode_id INTEGER NOT NULL,
			total_cards INTEGER DEFAULT 0,
			cards_studied INTEGER DEFAULT 0,
			cards_correct INTEGER DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			duration_seconds INTEGER DEFAULT 0,
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (episode_id) REFERENCES episodes(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_card_studies_due
			ON card_studies(user_id, direction, due)`,
		`CREATE INDEX IF NOT EXISTS idx_phrases_episode
			ON phrases(episode_id)`,
	}

	for _, stmt := range statements {
		if IsPostgres() {
			stmt = pgSchema(stmt)
		}
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
