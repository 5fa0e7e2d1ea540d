package task

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// SQLiteStore persists the task list in a SQLite database. Insertion order is
// the autoincrement sequence.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the tasks table exists. The caller is responsible for calling Close.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// List returns all tasks ordered by insertion.
func (s *SQLiteStore) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT text FROM tasks ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, text)
	}
	return tasks, rows.Err()
}

// Append inserts text after every existing task.
func (s *SQLiteStore) Append(text string) error {
	_, err := s.db.Exec(`INSERT INTO tasks (text, created_at) VALUES (?, ?)`, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Remove deletes the oldest row whose text equals text.
func (s *SQLiteStore) Remove(text string) (bool, error) {
	res, err := s.db.Exec(`
		DELETE FROM tasks WHERE seq = (
			SELECT seq FROM tasks WHERE text = ? ORDER BY seq ASC LIMIT 1
		)`, text)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
