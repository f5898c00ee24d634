package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. The driver is chosen
// with DB_TYPE ("sqlite" or "postgres", sqlite by default); postgres reads
// DATABASE_URL, sqlite reads SQLITE_PATH (default data/studydeck.db).
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var db *sqlx.DB
	var err error

	switch dbType {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
	default:
		dbPath := os.Getenv("SQLITE_PATH")
		if dbPath == "" {
			dataDir := "data"
			if err := os.MkdirAll(dataDir, 0755); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
			dbPath = filepath.Join(dataDir, "studydeck.db")
		}
		db, err = sqlx.Connect("sqlite3", dbPath)
		if err != nil {
			return fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	DB = db
	return InitializeSchema()
}

// ConnectTest opens an in-memory sqlite database with a fresh schema.
// Intended for package tests only.
func ConnectTest() error {
	db, err := sqlx.Connect("sqlite3", ":memory:")
	if err != nil {
		return fmt.Errorf("failed to open in-memory sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	DB = db
	return InitializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// InitializeSchema creates necessary tables if they don't exist
func InitializeSchema() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if DB.DriverName() == "postgres" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username TEXT,
			notification_enabled BOOLEAN DEFAULT true,
			notification_hour INTEGER DEFAULT 9,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS subjects (
			id %s,
			user_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			archived BOOLEAN DEFAULT false,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS topics (
			id %s,
			user_id BIGINT NOT NULL,
			subject_id BIGINT REFERENCES subjects(id),
			title TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS cards (
			id %s,
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			front TEXT NOT NULL,
			back TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		`CREATE TABLE IF NOT EXISTS configs (
			topic_id BIGINT NOT NULL REFERENCES topics(id),
			user_id BIGINT NOT NULL,
			archived BOOLEAN DEFAULT false,
			reviewing BOOLEAN DEFAULT false,
			recall_threshold REAL DEFAULT 0.8,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (topic_id, user_id)
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS progress (
			id %s,
			user_id BIGINT NOT NULL,
			card_id BIGINT NOT NULL REFERENCES cards(id),
			level INTEGER NOT NULL DEFAULT 1,
			due_date TIMESTAMP NOT NULL,
			est_answer_time REAL NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, card_id)
		)`, serial),
		`CREATE INDEX IF NOT EXISTS idx_progress_user_due ON progress (user_id, due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_topic ON cards (topic_id)`,
	}

	for _, stmt := range statements {
		if _, err := DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
