package digest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned for lookups of absent sources or digests.
var ErrNotFound = errors.New("not found")

// Store manages source and digest persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    url        TEXT NOT NULL,
    fetcher    TEXT NOT NULL DEFAULT '',
    schedule   TEXT NOT NULL DEFAULT '',
    enabled    INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS digests (
    id         TEXT PRIMARY KEY,
    source_id  INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title      TEXT NOT NULL,
    url        TEXT NOT NULL,
    author     TEXT NOT NULL DEFAULT '',
    content    TEXT NOT NULL DEFAULT '',
    summary    TEXT NOT NULL DEFAULT '',
    tags       TEXT NOT NULL DEFAULT '[]',
    exported   INTEGER NOT NULL DEFAULT 0,
    fetched_at TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (source_id, url)
);

CREATE INDEX IF NOT EXISTS idx_digests_source ON digests(source_id);
`

// Open initializes or connects to the digest database.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddSource inserts a new source and returns it with its assigned ID.
func (s *Store) AddSource(ctx context.Context, src Source) (*Source, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sources (name, url, fetcher, schedule, enabled, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		src.Name, src.URL, src.Fetcher, src.Schedule, boolToInt(src.Enabled), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSource(ctx, id)
}

// GetSource returns the source with the given ID.
func (s *Store) GetSource(ctx context.Context, id int64) (*Source, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, url, fetcher, schedule, enabled, created_at FROM sources WHERE id = ?`, id)
	return scanSource(row)
}

// ListSources returns all sources in insertion order.
func (s *Store) ListSources(ctx context.Context) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, fetcher, schedule, enabled, created_at FROM sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *src)
	}
	return out, rows.Err()
}

// UpdateSource updates the mutable fields of a source.
func (s *Store) UpdateSource(ctx context.Context, src Source) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sources SET name = ?, url = ?, fetcher = ?, schedule = ?, enabled = ? WHERE id = ?`,
		src.Name, src.URL, src.Fetcher, src.Schedule, boolToInt(src.Enabled), src.ID,
	)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("source %d: %w", src.ID, ErrNotFound)
	}
	return nil
}

// DeleteSource removes a source and, via cascade, its digests.
func (s *Store) DeleteSource(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("source %d: %w", id, ErrNotFound)
	}
	return nil
}

// InsertDigest stores a new digest. A digest with the same (source, url) pair
// as an existing one is skipped; the bool result reports whether a row was
// actually inserted.
func (s *Store) InsertDigest(ctx context.Context, d Digest) (bool, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	tags, err := json.Marshal(tagsOrEmpty(d.Tags))
	if err != nil {
		return false, fmt.Errorf("marshal tags: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO digests (id, source_id, title, url, author, content, summary, tags, exported, fetched_at, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(source_id, url) DO NOTHING`,
		d.ID, d.SourceID, d.Title, d.URL, d.Author, d.Content, d.Summary, string(tags),
		boolToInt(d.Exported), d.FetchedAt.UTC().Format(time.RFC3339Nano), d.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("insert digest: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetDigest returns the digest with the given ID.
func (s *Store) GetDigest(ctx context.Context, id string) (*Digest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_id, title, url, author, content, summary, tags, exported, fetched_at, created_at
         FROM digests WHERE id = ?`, id)
	return scanDigest(row)
}

// ListDigests returns digests newest first, optionally filtered by source and
// tag.
func (s *Store) ListDigests(ctx context.Context, f ListFilter) ([]Digest, error) {
	query := `SELECT id, source_id, title, url, author, content, summary, tags, exported, fetched_at, created_at FROM digests`
	var (
		where []string
		args  []any
	)
	if f.SourceID != 0 {
		where = append(where, "source_id = ?")
		args = append(args, f.SourceID)
	}
	if len(where) > 0 {
		query += " WHERE " + where[0]
		for _, w := range where[1:] {
			query += " AND " + w
		}
	}
	query += " ORDER BY created_at DESC, id"
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Digest
	for rows.Next() {
		d, err := scanDigest(rows)
		if err != nil {
			return nil, err
		}
		if f.Tag != "" && !containsTag(d.Tags, f.Tag) {
			continue
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// SetSummary stores the summary and tags produced for a digest.
func (s *Store) SetSummary(ctx context.Context, id, summary string, tags []string) error {
	encoded, err := json.Marshal(tagsOrEmpty(tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE digests SET summary = ?, tags = ? WHERE id = ?`, summary, string(encoded), id)
	if err != nil {
		return fmt.Errorf("set summary: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("digest %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteDigest removes a digest.
func (s *Store) DeleteDigest(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM digests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete digest: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("digest %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddTag appends a tag to a digest if not already present.
func (s *Store) AddTag(ctx context.Context, id, tag string) error {
	d, err := s.GetDigest(ctx, id)
	if err != nil {
		return err
	}
	if containsTag(d.Tags, tag) {
		return nil
	}
	return s.setTags(ctx, id, append(d.Tags, tag))
}

// RemoveTag removes a tag from a digest. Removing an absent tag is not an
// error.
func (s *Store) RemoveTag(ctx context.Context, id, tag string) error {
	d, err := s.GetDigest(ctx, id)
	if err != nil {
		return err
	}
	tags := make([]string, 0, len(d.Tags))
	for _, t := range d.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	return s.setTags(ctx, id, tags)
}

// MarkExported flags a digest as having been exported.
func (s *Store) MarkExported(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE digests SET exported = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("digest %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) setTags(ctx context.Context, id string, tags []string) error {
	encoded, err := json.Marshal(tagsOrEmpty(tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE digests SET tags = ? WHERE id = ?`, string(encoded), id); err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (*Source, error) {
	var (
		src       Source
		enabled   int
		createdAt string
	)
	err := row.Scan(&src.ID, &src.Name, &src.URL, &src.Fetcher, &src.Schedule, &enabled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}
	src.Enabled = enabled != 0
	src.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &src, nil
}

func scanDigest(row rowScanner) (*Digest, error) {
	var (
		d         Digest
		tags      string
		exported  int
		fetchedAt string
		createdAt string
	)
	err := row.Scan(&d.ID, &d.SourceID, &d.Title, &d.URL, &d.Author, &d.Content, &d.Summary, &tags, &exported, &fetchedAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan digest: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &d.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	d.Exported = exported != 0
	d.FetchedAt, _ = time.Parse(time.RFC3339Nano, fetchedAt)
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &d, nil
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
