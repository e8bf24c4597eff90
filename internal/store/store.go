// Package store persists extracted outlines in SQLite, keyed by the SHA-256
// of the source document so identical uploads can be served without
// re-extraction.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/pdfoutline/internal/doctree"

	_ "modernc.org/sqlite"
)

// pragmas are applied by the driver to every pooled connection.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"

func dsn(path string) string {
	return path + "?" + pragmas
}

// ErrNotFound is returned when no outline is stored for an ID.
var ErrNotFound = errors.New("document not found")

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	doc_id      TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	title       TEXT NOT NULL,
	pages       INTEGER NOT NULL,
	headings    INTEGER NOT NULL,
	method      TEXT NOT NULL,
	outline     TEXT NOT NULL,
	diagnostics TEXT NOT NULL DEFAULT '{}',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_updated ON documents(updated_at DESC);
`

// Record is one stored outline.
type Record struct {
	DocID       string          `json:"doc_id"`
	Filename    string          `json:"filename"`
	Title       string          `json:"title"`
	Pages       int             `json:"pages"`
	Headings    int             `json:"headings"`
	Method      string          `json:"method"`
	Outline     doctree.Outline `json:"outline"`
	Diagnostics json.RawMessage `json:"diagnostics,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Summary is a Record without its outline body.
type Summary struct {
	DocID     string    `json:"doc_id"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Pages     int       `json:"pages"`
	Headings  int       `json:"headings"`
	Method    string    `json:"method"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is an outline store backed by one SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// ContentHash returns the document ID for raw document bytes.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Open opens or creates the database at path. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database exists per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Put inserts or replaces the outline for rec.DocID. Title and Headings are
// taken from the outline; created_at is kept from an existing row.
func (s *Store) Put(ctx context.Context, rec Record) error {
	if rec.DocID == "" {
		return errors.New("put: empty doc id")
	}
	outline, err := json.Marshal(rec.Outline)
	if err != nil {
		return fmt.Errorf("put %s: encode outline: %w", rec.DocID, err)
	}
	diag := rec.Diagnostics
	if len(diag) == 0 {
		diag = json.RawMessage("{}")
	}
	now := s.now().UnixMilli()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (doc_id, filename, title, pages, headings, method, outline, diagnostics, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			filename = excluded.filename,
			title = excluded.title,
			pages = excluded.pages,
			headings = excluded.headings,
			method = excluded.method,
			outline = excluded.outline,
			diagnostics = excluded.diagnostics,
			updated_at = excluded.updated_at`,
		rec.DocID, rec.Filename, rec.Outline.Title, rec.Pages, len(rec.Outline.Outline),
		rec.Method, string(outline), string(diag), now, now)
	if err != nil {
		return fmt.Errorf("put %s: %w", rec.DocID, err)
	}
	return nil
}

// Get returns the stored outline, or ErrNotFound.
func (s *Store) Get(ctx context.Context, docID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT doc_id, filename, title, pages, headings, method, outline, diagnostics, created_at, updated_at
		FROM documents WHERE doc_id = ?`, docID)

	var rec Record
	var outline, diag string
	var created, updated int64
	err := row.Scan(&rec.DocID, &rec.Filename, &rec.Title, &rec.Pages, &rec.Headings,
		&rec.Method, &outline, &diag, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", docID, err)
	}
	if err := json.Unmarshal([]byte(outline), &rec.Outline); err != nil {
		return nil, fmt.Errorf("get %s: decode outline: %w", docID, err)
	}
	rec.Diagnostics = json.RawMessage(diag)
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	return &rec, nil
}

// List returns summaries, most recently updated first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Summary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, filename, title, pages, headings, method, updated_at
		FROM documents ORDER BY updated_at DESC, doc_id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var updated int64
		if err := rows.Scan(&sm.DocID, &sm.Filename, &sm.Title, &sm.Pages, &sm.Headings, &sm.Method, &updated); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		sm.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, sm)
	}
	return out, rows.Err()
}

// Delete removes a stored outline. It returns ErrNotFound if none existed.
func (s *Store) Delete(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", docID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored outlines.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
