// Package storage persists vision results in SQLite: a cache of analysis text
// keyed by image hash, and a history of completed analyses.
package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// AnalysisRecord is one completed analysis in the history table.
type AnalysisRecord struct {
	ID        int64     `json:"id"`
	ImageSHA  string    `json:"imageSha"`
	MediaType string    `json:"mediaType"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a SQLite-backed store for vision cache entries and analysis
// history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the SQLite database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS vision_cache (
			hash TEXT PRIMARY KEY,
			result TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			image_sha TEXT NOT NULL,
			media_type TEXT NOT NULL,
			result TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// GetCachedAnalysis returns the cached analysis text for hash, if any.
func (s *Store) GetCachedAnalysis(hash string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result string
	err := s.db.QueryRow("SELECT result FROM vision_cache WHERE hash = ?", hash).Scan(&result)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query vision cache: %w", err)
	}
	return result, true, nil
}

// PutCachedAnalysis stores analysis text under hash, replacing any previous
// entry.
func (s *Store) PutCachedAnalysis(hash, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO vision_cache (hash, result) VALUES (?, ?) ON CONFLICT(hash) DO UPDATE SET result = excluded.result",
		hash, text,
	)
	if err != nil {
		return fmt.Errorf("failed to write vision cache: %w", err)
	}
	return nil
}

// AddAnalysis appends a completed analysis to the history.
func (s *Store) AddAnalysis(rec AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		"INSERT INTO analyses (image_sha, media_type, result, created_at) VALUES (?, ?, ?, ?)",
		rec.ImageSHA, rec.MediaType, rec.Result, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

// RecentAnalyses returns up to limit analyses, newest first.
func (s *Store) RecentAnalyses(limit int) ([]AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		"SELECT id, image_sha, media_type, result, created_at FROM analyses ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var recs []AnalysisRecord
	for rows.Next() {
		var rec AnalysisRecord
		if err := rows.Scan(&rec.ID, &rec.ImageSHA, &rec.MediaType, &rec.Result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
