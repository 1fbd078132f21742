// Package ledger implements the durable, transactional store of the URL
// frontier, visit outcomes, per-attempt history and global word tally. It is
// the single writer of state.db; the engine process is its sole owner.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Status is the lifecycle state of a Page record.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusVisited Status = "visited"
	StatusFailed  Status = "failed"
)

// PeekRow is the next candidate URL returned by Peek.
type PeekRow struct {
	SID      int64
	URL      string
	Depth    int
	Attempts int
}

// Ledger is the single-writer SQLite-backed store of crawl state: the URL
// frontier, visited pages, and their outcomes.
type Ledger struct {
	db *sql.DB
}

// Open creates or opens the ledger database at path, enabling WAL journaling
// and creating the schema if it does not already exist.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open: %w", err)
	}
	// single writer: one connection avoids SQLITE_BUSY from this process
	// contending with itself.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enable WAL: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Ledger) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			sid INTEGER PRIMARY KEY,
			url TEXT UNIQUE,
			depth INTEGER,
			status TEXT CHECK(status IN ('queued', 'visited', 'failed')) DEFAULT 'queued',
			attempts INTEGER DEFAULT 0,
			inserted_at TEXT DEFAULT CURRENT_TIMESTAMP,
			last_attempt TEXT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS attempts (
			sid INTEGER,
			url TEXT,
			depth INTEGER,
			attempt INTEGER,
			status INTEGER,
			duration REAL,
			attempt_time TEXT,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS words (
			word TEXT PRIMARY KEY,
			count INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status ON pages(status)`,
		`CREATE INDEX IF NOT EXISTS idx_status_retries ON pages(status, attempts)`,
		`CREATE INDEX IF NOT EXISTS idx_url ON pages(url)`,
		`CREATE INDEX IF NOT EXISTS idx_word ON words(word)`,
	}
	for _, stmt := range stmts {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("ledger: init schema: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func now() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// Enqueue inserts url as a queued Page at depth. A no-op if url is already
// present (INSERT OR IGNORE on the unique url constraint).
func (l *Ledger) Enqueue(url string, depth int) error {
	_, err := l.db.Exec(
		`INSERT OR IGNORE INTO pages (url, depth, inserted_at) VALUES (?, ?, ?)`,
		url, depth, now(),
	)
	if err != nil {
		return fmt.Errorf("ledger: enqueue: %w", err)
	}
	return nil
}

// Peek returns the next queued URL ordered by (depth asc, attempts desc,
// inserted_at asc), without removing it. ok is false if the frontier is
// empty.
func (l *Ledger) Peek() (row PeekRow, ok bool, err error) {
	r := l.db.QueryRow(`
		SELECT sid, url, depth, attempts FROM pages
		WHERE status = 'queued'
		ORDER BY depth, attempts DESC, inserted_at
		LIMIT 1
	`)
	if scanErr := r.Scan(&row.SID, &row.URL, &row.Depth, &row.Attempts); scanErr != nil {
		if scanErr == sql.ErrNoRows {
			return PeekRow{}, false, nil
		}
		return PeekRow{}, false, fmt.Errorf("ledger: peek: %w", scanErr)
	}
	return row, true, nil
}

// MarkAttempt increments attempts and stamps last_attempt for url.
func (l *Ledger) MarkAttempt(url string) error {
	_, err := l.db.Exec(`UPDATE pages SET attempts = attempts + 1, last_attempt = ? WHERE url = ?`, now(), url)
	if err != nil {
		return fmt.Errorf("ledger: mark attempt: %w", err)
	}
	return nil
}

// DecreaseAttempt undoes a recorded attempt, used when an environment fault
// aborts before a real network attempt should be charged.
func (l *Ledger) DecreaseAttempt(url string) error {
	_, err := l.db.Exec(`UPDATE pages SET attempts = attempts - 1, last_attempt = ? WHERE url = ?`, now(), url)
	if err != nil {
		return fmt.Errorf("ledger: decrease attempt: %w", err)
	}
	return nil
}

// LogAttempt appends an Attempt record. httpStatus may be a synthetic fault
// code when no real HTTP response was received.
func (l *Ledger) LogAttempt(sid int64, url string, depth, ordinal, httpStatus int, durationSeconds float64, errStr string) error {
	_, err := l.db.Exec(`
		INSERT INTO attempts (sid, url, depth, attempt, status, duration, attempt_time, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sid, url, depth, ordinal, httpStatus, durationSeconds, now(), errStr)
	if err != nil {
		return fmt.Errorf("ledger: log attempt: %w", err)
	}
	return nil
}

// MarkFailure sets url's status to failed and records a diagnostic. No
// further attempts follow a failed Page within this run.
func (l *Ledger) MarkFailure(url, errStr string) error {
	_, err := l.db.Exec(`UPDATE pages SET status = 'failed', last_attempt = ?, error = ? WHERE url = ?`, now(), errStr, url)
	if err != nil {
		return fmt.Errorf("ledger: mark failure: %w", err)
	}
	return nil
}

// CommitSuccess atomically merges wordCounts into the global tally and sets
// url's status to visited. Either both persist or neither (invariant 2).
func (l *Ledger) CommitSuccess(url string, wordCounts map[string]int) error {
	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("ledger: commit success: begin: %w", err)
	}
	defer tx.Rollback()

	for word, count := range wordCounts {
		if _, err := tx.Exec(`
			INSERT INTO words (word, count) VALUES (?, ?)
			ON CONFLICT(word) DO UPDATE SET count = count + ?
		`, word, count, count); err != nil {
			return fmt.Errorf("ledger: commit success: word upsert: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE pages SET status = 'visited' WHERE url = ?`, url); err != nil {
		return fmt.Errorf("ledger: commit success: mark visited: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: commit success: commit: %w", err)
	}
	return nil
}

// Length returns the total number of Page rows.
func (l *Ledger) Length() (int, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ledger: length: %w", err)
	}
	return n, nil
}

// StartURL recovers the first-ever enqueued URL and its depth, for display
// on resume.
func (l *Ledger) StartURL() (url string, depth int, err error) {
	r := l.db.QueryRow(`SELECT url, depth FROM pages ORDER BY sid LIMIT 1`)
	if scanErr := r.Scan(&url, &depth); scanErr != nil {
		return "", 0, fmt.Errorf("ledger: start url: %w", scanErr)
	}
	return url, depth, nil
}

// Stats summarizes Page rows by status, used by the Dashboard and Reporter.
type Stats struct {
	Queued  int
	Visited int
	Failed  int
}

// Snapshot returns a read-only summary of the ledger, safe to call
// concurrently with the writing engine (weakly consistent: it may lag the
// latest write by one transaction).
func (l *Ledger) Snapshot() (Stats, error) {
	var s Stats
	rows, err := l.db.Query(`SELECT status, COUNT(*) FROM pages GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("ledger: snapshot: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("ledger: snapshot: %w", err)
		}
		switch Status(status) {
		case StatusQueued:
			s.Queued = count
		case StatusVisited:
			s.Visited = count
		case StatusFailed:
			s.Failed = count
		}
	}
	return s, rows.Err()
}

// TopWords returns the n highest-count words from the global tally, for the
// completion report.
func (l *Ledger) TopWords(n int) (map[string]int, error) {
	rows, err := l.db.Query(`SELECT word, count FROM words ORDER BY count DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("ledger: top words: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int, n)
	for rows.Next() {
		var word string
		var count int
		if err := rows.Scan(&word, &count); err != nil {
			return nil, fmt.Errorf("ledger: top words: %w", err)
		}
		out[word] = count
	}
	return out, rows.Err()
}
