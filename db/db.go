package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"frames-scraper/models"

	_ "github.com/lib/pq"
)

// DB wraps the Postgres connection used as an optional sink for scraped
// sessions. The CSV/JSON files remain the primary output; this keeps a
// queryable history of runs.
type DB struct {
	conn *sql.DB
}

// NewDB connects using DATABASE_URL, or the individual DB_* variables when
// it is unset, and initializes the schema.
func NewDB() (*DB, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "frames_scraper")
		password := getEnvOrDefault("DB_PASSWORD", "")
		dbname := getEnvOrDefault("DB_NAME", "frames_scraper")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the runs and products tables if they don't exist.
// Product fields are stored as JSONB because the field set varies per site.
func (db *DB) initSchema() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id SERIAL PRIMARY KEY,
			site VARCHAR(255) NOT NULL,
			url TEXT NOT NULL,
			pages_scraped INTEGER NOT NULL DEFAULT 0,
			pages_failed INTEGER NOT NULL DEFAULT 0,
			product_count INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			id SERIAL PRIMARY KEY,
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			fields JSONB NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create products table: %w", err)
	}

	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_products_run_id ON products(run_id)`)
	if err != nil {
		return fmt.Errorf("failed to create index on products.run_id: %w", err)
	}
	_, err = db.conn.Exec(`CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site)`)
	if err != nil {
		return fmt.Errorf("failed to create index on runs.site: %w", err)
	}

	return nil
}

// SaveSession stores a completed session and returns the run id. Records are
// stored in session order so the position column reproduces the output files.
func (db *DB) SaveSession(session *models.Session) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRow(`
		INSERT INTO runs (site, url, pages_scraped, pages_failed, product_count, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, session.Site, session.URL, session.PagesScraped, session.PagesFailed, session.Len(), session.StartedAt).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO products (run_id, position, fields) VALUES ($1, $2, $3)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range session.Records {
		fields, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		if _, err := stmt.Exec(runID, i, fields); err != nil {
			return 0, fmt.Errorf("failed to insert product %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return runID, nil
}
