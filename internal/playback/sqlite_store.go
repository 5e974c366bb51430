package playback

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sequencesSchema = `
CREATE TABLE IF NOT EXISTS sequences (
	id         TEXT PRIMARY KEY,
	source     BLOB NOT NULL,
	created_at TEXT NOT NULL
)`

// SQLiteStore keeps sequence records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore uses db, creating the sequences table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(sequencesSchema); err != nil {
		return nil, fmt.Errorf("create sequences table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get implements Store.Get.
func (s *SQLiteStore) Get(id SequenceID) (Record, bool, error) {
	var (
		rec     = Record{ID: id}
		created string
	)
	err := s.db.QueryRow(`SELECT source, created_at FROM sequences WHERE id = ?`, string(id)).
		Scan(&rec.Source, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get sequence %s: %w", id, err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Record{}, false, fmt.Errorf("sequence %s created_at: %w", id, err)
	}
	return rec, true, nil
}

// Put implements Store.Put.
func (s *SQLiteStore) Put(rec Record) error {
	_, err := s.db.Exec(`
		INSERT INTO sequences (id, source, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET source = excluded.source, created_at = excluded.created_at`,
		string(rec.ID),
		rec.Source,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put sequence %s: %w", rec.ID, err)
	}
	return nil
}

// Delete implements Store.Delete.
func (s *SQLiteStore) Delete(id SequenceID) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM sequences WHERE id = ?`, string(id))
	if err != nil {
		return false, fmt.Errorf("delete sequence %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete sequence %s: %w", id, err)
	}
	return n > 0, nil
}

// List implements Store.List.
func (s *SQLiteStore) List() ([]SequenceID, error) {
	rows, err := s.db.Query(`SELECT id FROM sequences ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	ids := []SequenceID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list sequences: %w", err)
		}
		ids = append(ids, SequenceID(id))
	}
	return ids, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
