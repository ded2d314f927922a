// Package db is the SQLite model registry: trained bundles stored as rows
// so one file can carry several models and their column lists.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrBundleNotFound = errors.New("model bundle not found")

// BundleRecord is one stored model artifact.
type BundleRecord struct {
	ID        int64
	Name      string
	Kind      string
	Columns   []string
	Model     json.RawMessage
	CreatedAt time.Time
}

type Store struct {
	db *sql.DB
}

const schemaSQL = `
    CREATE TABLE IF NOT EXISTS model_bundles (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        kind TEXT NOT NULL,
        columns TEXT NOT NULL,
        model TEXT NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS idx_model_bundles_name ON model_bundles(name, created_at);
    `

// Open opens (creating if needed) a registry for writing.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec(schemaSQL); err != nil {
		database.Close()
		return nil, fmt.Errorf("init model_bundles: %w", err)
	}
	return &Store{db: database}, nil
}

// OpenReadOnly opens an existing registry without creating or migrating it.
func OpenReadOnly(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBundle inserts rec and returns its row id.
func (s *Store) SaveBundle(rec BundleRecord) (int64, error) {
	columns, err := json.Marshal(rec.Columns)
	if err != nil {
		return 0, err
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.Exec(`
        INSERT INTO model_bundles (name, kind, columns, model, created_at)
        VALUES (?, ?, ?, ?, ?)`,
		rec.Name, rec.Kind, string(columns), string(rec.Model), createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LatestBundle returns the newest bundle called name, or the newest bundle
// overall when name is empty.
func (s *Store) LatestBundle(name string) (*BundleRecord, error) {
	query := `
        SELECT id, name, kind, columns, model, created_at
        FROM model_bundles`
	var args []any
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 1`

	var (
		rec     BundleRecord
		columns string
		model   string
	)
	err := s.db.QueryRow(query, args...).Scan(&rec.ID, &rec.Name, &rec.Kind, &columns, &model, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBundleNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(columns), &rec.Columns); err != nil {
		return nil, fmt.Errorf("bundle %d columns: %w", rec.ID, err)
	}
	rec.Model = json.RawMessage(model)
	return &rec, nil
}
