/*
Package sqlite caches fetched time entries in a local SQLite database.

PURPOSE:
  Lets the report run without network access: `sync` stores everything the
  Toggl client fetched, `report --offline` reads it back. The cache holds
  per-day records exactly as the engine consumes them, so an offline report
  is byte-identical to the online one for the same data.

KEY TABLES:
  time_entries: one row per client/project/day with accumulated minutes
  sync_state:   single row recording when and from which date we last synced

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; the CLI is single-user but the serve
  command reads the cache from request handlers.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  the sync writer.

USAGE:
  cache, err := sqlite.New("./ontrack.db")
  if err != nil {
      log.Fatal(err)
  }
  defer cache.Close()

  err = cache.ReplaceEntries(ctx, records, time.Now(), firstPeriodStart)
  entries, err := cache.Entries(ctx)

SEE ALSO:
  - toggl: produces the records stored here
  - cmd/ontrack: sync and --offline wiring
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/ontrack/engine"
)

// Store is the local time-entry cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (and migrates) the cache at the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS time_entries (
		client TEXT NOT NULL,
		project TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		minutes INTEGER NOT NULL,
		PRIMARY KEY (client, project, date)
	);

	CREATE INDEX IF NOT EXISTS idx_time_entries_date
		ON time_entries(date);

	-- Single-row table: the cache is all-or-nothing per sync.
	CREATE TABLE IF NOT EXISTS sync_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		synced_at TEXT NOT NULL,
		from_date TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITE SIDE - Sync replaces the cache wholesale
// =============================================================================

// ReplaceEntries atomically swaps the cache contents for the given records
// and stamps the sync state. A partial failure leaves the previous cache
// intact.
func (s *Store) ReplaceEntries(ctx context.Context, entries []engine.TimeEntry, syncedAt time.Time, from engine.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM time_entries"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	insert := `
		INSERT INTO time_entries (client, project, date, minutes)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(client, project, date) DO UPDATE SET
			minutes = time_entries.minutes + excluded.minutes
	`
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, insert,
			e.Client, e.Project, e.Date.String(), int64(e.Minutes),
		); err != nil {
			return fmt.Errorf("failed to store entry %s/%s %s: %w", e.Client, e.Project, e.Date, err)
		}
	}

	state := `
		INSERT INTO sync_state (id, synced_at, from_date)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			synced_at = excluded.synced_at,
			from_date = excluded.from_date
	`
	if _, err := tx.ExecContext(ctx, state,
		syncedAt.UTC().Format(time.RFC3339), from.String(),
	); err != nil {
		return fmt.Errorf("failed to record sync state: %w", err)
	}

	return tx.Commit()
}

// =============================================================================
// READ SIDE
// =============================================================================

// Entries returns every cached record, ordered by date, client, project.
func (s *Store) Entries(ctx context.Context) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT client, project, date, minutes
		FROM time_entries
		ORDER BY date ASC, client ASC, project ASC
	`

	return s.queryEntries(ctx, query)
}

// EntriesInRange returns cached records with from <= date <= to.
func (s *Store) EntriesInRange(ctx context.Context, from, to engine.Date) ([]engine.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT client, project, date, minutes
		FROM time_entries
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC, client ASC, project ASC
	`

	return s.queryEntries(ctx, query, from.String(), to.String())
}

// LastSync reports when the cache was last replaced and the fetch start
// date. ok is false when no sync has happened yet.
func (s *Store) LastSync(ctx context.Context) (syncedAt time.Time, from engine.Date, ok bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var syncedAtStr, fromStr string
	err = s.db.QueryRowContext(ctx,
		"SELECT synced_at, from_date FROM sync_state WHERE id = 1",
	).Scan(&syncedAtStr, &fromStr)

	if err == sql.ErrNoRows {
		return time.Time{}, engine.Date{}, false, nil
	}
	if err != nil {
		return time.Time{}, engine.Date{}, false, err
	}

	syncedAt, err = time.Parse(time.RFC3339, syncedAtStr)
	if err != nil {
		return time.Time{}, engine.Date{}, false, fmt.Errorf("corrupt sync_state timestamp: %w", err)
	}
	from, err = engine.ParseDate(fromStr)
	if err != nil {
		return time.Time{}, engine.Date{}, false, fmt.Errorf("corrupt sync_state date: %w", err)
	}
	return syncedAt, from, true, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]engine.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []engine.TimeEntry
	for rows.Next() {
		var e engine.TimeEntry
		var dateStr string
		var minutes int64
		if err := rows.Scan(&e.Client, &e.Project, &dateStr, &minutes); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.Date, err = engine.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt entry date %q: %w", dateStr, err)
		}
		e.Minutes = engine.Minutes(minutes)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
