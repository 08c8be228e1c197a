// Package cursor persists the next USN of each volume so a later
// run can report only what changed since.
package cursor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNoCursor = errors.New("No cursor stored for volume")
)

// Cursor is where to resume a volume's journal. The journal id
// changes when the journal is deleted and recreated, which makes
// the stored usn meaningless.
type Cursor struct {
	Volume    string
	JournalID uint64
	NextUsn   uint64
	Updated   time.Time
}

type Store struct {
	db *sql.DB
}

// Open initializes (or reuses) the SQLite database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cursor database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, exec_err := db.Exec(pragma); exec_err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, exec_err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (self *Store) Close() error {
	if self == nil || self.db == nil {
		return nil
	}
	return self.db.Close()
}

func (self *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS cursors (
        volume TEXT PRIMARY KEY,
        journal_id INTEGER NOT NULL,
        next_usn INTEGER NOT NULL,
        updated INTEGER NOT NULL
);
`
	if _, err := self.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Volume names are case insensitive.
func normalize(volume string) string {
	return strings.ToUpper(strings.TrimSpace(volume))
}

func (self *Store) Load(ctx context.Context, volume string) (*Cursor, error) {
	row := self.db.QueryRowContext(ctx, `
SELECT volume, journal_id, next_usn, updated FROM cursors WHERE volume = ?`,
		normalize(volume))

	var (
		name       string
		journal_id int64
		next_usn   int64
		updated    int64
	)
	err := row.Scan(&name, &journal_id, &next_usn, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrNoCursor, volume)
	}
	if err != nil {
		return nil, fmt.Errorf("load cursor: %w", err)
	}

	return &Cursor{
		Volume:    name,
		JournalID: uint64(journal_id),
		NextUsn:   uint64(next_usn),
		Updated:   time.Unix(0, updated),
	}, nil
}

// Save inserts or replaces the cursor of a volume. A zero Updated
// time is set to now.
func (self *Store) Save(ctx context.Context, cursor Cursor) error {
	if cursor.Updated.IsZero() {
		cursor.Updated = time.Now()
	}

	_, err := self.db.ExecContext(ctx, `
INSERT INTO cursors(volume, journal_id, next_usn, updated)
VALUES(?, ?, ?, ?)
ON CONFLICT(volume) DO UPDATE SET
        journal_id=excluded.journal_id,
        next_usn=excluded.next_usn,
        updated=excluded.updated
`, normalize(cursor.Volume), int64(cursor.JournalID),
		int64(cursor.NextUsn), cursor.Updated.UnixNano())
	if err != nil {
		return fmt.Errorf("save cursor: %w", err)
	}
	return nil
}

// List returns all cursors ordered by volume.
func (self *Store) List(ctx context.Context) ([]Cursor, error) {
	rows, err := self.db.QueryContext(ctx, `
SELECT volume, journal_id, next_usn, updated FROM cursors ORDER BY volume`)
	if err != nil {
		return nil, fmt.Errorf("query cursors: %w", err)
	}
	defer rows.Close()

	var result []Cursor
	for rows.Next() {
		var (
			name       string
			journal_id int64
			next_usn   int64
			updated    int64
		)
		if scan_err := rows.Scan(&name, &journal_id, &next_usn, &updated); scan_err != nil {
			return nil, fmt.Errorf("scan cursor: %w", scan_err)
		}
		result = append(result, Cursor{
			Volume:    name,
			JournalID: uint64(journal_id),
			NextUsn:   uint64(next_usn),
			Updated:   time.Unix(0, updated),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cursors: %w", err)
	}
	return result, nil
}

// Delete removes the cursor of a volume. Deleting a missing cursor
// is not an error.
func (self *Store) Delete(ctx context.Context, volume string) error {
	_, err := self.db.ExecContext(ctx,
		`DELETE FROM cursors WHERE volume = ?`, normalize(volume))
	if err != nil {
		return fmt.Errorf("delete cursor: %w", err)
	}
	return nil
}
