package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tahcohcat/qwen-tts-web/internal/logger"
)

type DB struct {
	*sqlx.DB
}

// NewDB opens (and migrates) the sqlite database at path. ":memory:" works for tests.
func NewDB(path string) (*DB, error) {
	if path == "" {
		path = "qwen-tts.db" // Default SQLite file
	}

	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	dbWrapper := &DB{DB: db}

	if err := dbWrapper.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.New().WithModule("database").Debug("Database connection established and tables initialized")
	return dbWrapper, nil
}

func (db *DB) createTables() error {
	settingsTable := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	generationsTable := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		engine TEXT NOT NULL,
		voice TEXT NOT NULL,
		text_chars INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		filename TEXT NOT NULL DEFAULT '',
		audio_url TEXT NOT NULL DEFAULT '',
		audio_bytes INTEGER NOT NULL DEFAULT 0,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		total_tokens INTEGER NOT NULL DEFAULT 0,
		error_message TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);`

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_generations_created_at ON generations(created_at);`,
	}

	for _, query := range []string{settingsTable, generationsTable} {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	for _, index := range indexes {
		if _, err := db.Exec(index); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
