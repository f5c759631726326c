package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			return nil, fmt.Errorf("error enabling WAL: %w", err)
		}
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS hazard_reports (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			type TEXT NOT NULL,
			severity TEXT NOT NULL,
			severity_rank INTEGER NOT NULL,
			status TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			address TEXT,
			state TEXT,
			district TEXT,
			reporter_id TEXT,
			reporter_name TEXT,
			reporter_type TEXT,
			media_urls TEXT,
			source TEXT NOT NULL,
			verified INTEGER NOT NULL DEFAULT 0,
			reported_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS social_media_posts (
			id TEXT PRIMARY KEY,
			platform TEXT NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			hazard_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			sentiment_label TEXT NOT NULL,
			sentiment_score REAL NOT NULL,
			keywords TEXT,
			likes INTEGER NOT NULL DEFAULT 0,
			shares INTEGER NOT NULL DEFAULT 0,
			comments INTEGER NOT NULL DEFAULT 0,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			address TEXT,
			relevance_score REAL NOT NULL,
			is_synthetic INTEGER NOT NULL DEFAULT 1,
			posted_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			report_id TEXT,
			hotspot_id TEXT,
			level TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			read INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_reports_reported_at ON hazard_reports(reported_at);
		CREATE INDEX IF NOT EXISTS idx_reports_type ON hazard_reports(type);
		CREATE INDEX IF NOT EXISTS idx_reports_status ON hazard_reports(status);
		CREATE INDEX IF NOT EXISTS idx_posts_posted_at ON social_media_posts(posted_at);
		CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at);
  	`

	_, err := s.db.Exec(schema)
	return err
}

// CheckReadiness pings the database.
func (s *SQLiteDB) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unavailable: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
