package noteindex

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"engram/internal/domain"
	"engram/internal/ports"
)

const schema = `CREATE TABLE IF NOT EXISTS saved_notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	path TEXT NOT NULL,
	title TEXT NOT NULL,
	source_url TEXT NOT NULL,
	source_type TEXT NOT NULL,
	saved_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_notes_source_url ON saved_notes(source_url);`

// Index keeps an audit trail of saved notes in SQLite so duplicate source
// saves can be surfaced (they are warned about, never blocked).
type Index struct {
	db *sql.DB
}

var _ ports.NoteIndex = (*Index)(nil)

// Open creates or opens the index database and ensures the schema.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (i *Index) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	return i.db.Close()
}

// AlreadySaved reports whether a note for the source URL was recorded before.
func (i *Index) AlreadySaved(ctx context.Context, sourceURL string) (bool, error) {
	if i == nil || i.db == nil {
		return false, nil
	}

	query, args, err := sq.Select("COUNT(1)").
		From("saved_notes").
		Where(sq.Eq{"source_url": sourceURL}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := i.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("query saved notes: %w", err)
	}
	return count > 0, nil
}

// Record appends a saved-note row.
func (i *Index) Record(ctx context.Context, rec domain.NoteRecord) error {
	if i == nil || i.db == nil {
		return nil
	}

	query, args, err := sq.Insert("saved_notes").
		Columns("path", "title", "source_url", "source_type", "saved_at").
		Values(rec.Path, rec.Title, rec.SourceURL, string(rec.SourceType), rec.SavedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := i.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert saved note: %w", err)
	}
	return nil
}
