// Package sqlite is the embedded event store. It keeps the same schema and
// unique slug constraint as the postgres store, which makes it a faithful
// stand-in for local runs and for contention tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"eventrea/internal/models"
	"eventrea/internal/storage"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// fixed width so created_at sorts as text
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const eventColumns = `id, title, description, slug, price, currency, capacity, attendees_count,
		is_free, status, is_active, is_online, meeting_url, organizer_id, created_at, updated_at`

const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id              TEXT PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		slug            TEXT NOT NULL UNIQUE,
		price           REAL NOT NULL DEFAULT 0 CHECK (price >= 0),
		currency        TEXT NOT NULL DEFAULT 'NGN',
		capacity        INTEGER CHECK (capacity >= 1),
		attendees_count INTEGER NOT NULL DEFAULT 0 CHECK (attendees_count >= 0),
		is_free         INTEGER NOT NULL DEFAULT 0,
		status          TEXT NOT NULL DEFAULT 'draft',
		is_active       INTEGER NOT NULL DEFAULT 1,
		is_online       INTEGER NOT NULL DEFAULT 0,
		meeting_url     TEXT NOT NULL DEFAULT '',
		organizer_id    TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS events_status_idx ON events (status);
	CREATE INDEX IF NOT EXISTS events_created_at_idx ON events (created_at);`

type Storage struct {
	DB  *sql.DB
	now func() time.Time
}

// InitDB opens (creating if needed) the database file at path.
func InitDB(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one writer at a time; concurrent inserts queue on the pool instead of
	// failing with "database is locked"
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Storage{DB: db, now: time.Now}, nil
}

func (s *Storage) Close() error {
	return s.DB.Close()
}

func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate events schema: %w", err)
	}

	return nil
}

func (s *Storage) CreateEvent(ctx context.Context, e *models.Event) error {
	const op = "storage.sqlite.CreateEvent"

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id := uuid.NewString()

	_, err := s.DB.ExecContext(ctx, query,
		id,
		e.Title,
		e.Description,
		e.Slug,
		e.Price,
		e.Currency,
		nullInt(e.Capacity),
		e.AttendeesCount,
		e.IsFree,
		string(e.Status),
		e.IsActive,
		e.IsOnline,
		e.MeetingURL,
		e.OrganizerID,
		e.CreatedAt.UTC().Format(timeLayout),
		e.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	e.ID = id

	return nil
}

func (s *Storage) FindEvent(ctx context.Context, l models.Lookup) (*models.Event, error) {
	const op = "storage.sqlite.FindEvent"

	column, value, err := lookup(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + column + ` = ?`

	event, err := scanEvent(s.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func (s *Storage) FindEvents(ctx context.Context, q models.Query) ([]models.Event, error) {
	const op = "storage.sqlite.FindEvents"

	var (
		where []string
		args  []any
	)

	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(q.Status))
	}
	if q.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *q.IsActive)
	}
	if q.IsOnline != nil {
		where = append(where, "is_online = ?")
		args = append(args, *q.IsOnline)
	}
	if q.Search != "" {
		pattern := storage.LikePattern(strings.ToLower(q.Search))
		where = append(where, `(lower(title) LIKE ? ESCAPE '\' OR lower(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if q.Title != "" {
		where = append(where, `lower(title) LIKE ? ESCAPE '\'`)
		args = append(args, storage.LikePattern(strings.ToLower(q.Title)))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get events: %w", op, err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan event: %w", op, err)
		}
		events = append(events, *event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: error iterating events: %w", op, err)
	}

	return events, nil
}

func (s *Storage) UpdateEvent(ctx context.Context, l models.Lookup, p models.Patch) (*models.Event, error) {
	const op = "storage.sqlite.UpdateEvent"

	column, value, err := lookup(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set := []string{"updated_at = ?"}
	args := []any{s.now().UTC().Format(timeLayout)}
	for _, c := range storage.PatchColumns(p) {
		set = append(set, c.Name+" = ?")
		args = append(args, c.Value)
	}
	args = append(args, value)

	query := `UPDATE events SET ` + strings.Join(set, ", ") +
		` WHERE ` + column + ` = ? RETURNING ` + eventColumns

	event, err := scanEvent(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	return event, nil
}

func (s *Storage) DeleteEvent(ctx context.Context, l models.Lookup) (*models.Event, error) {
	const op = "storage.sqlite.DeleteEvent"

	column, value, err := lookup(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM events WHERE ` + column + ` = ? RETURNING ` + eventColumns

	event, err := scanEvent(s.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func lookup(l models.Lookup) (string, any, error) {
	if l.ID != "" {
		if _, err := uuid.Parse(l.ID); err != nil {
			return "", nil, storage.ErrInvalidID
		}
		return "id", l.ID, nil
	}

	return "slug", l.Slug, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var (
		event                models.Event
		capacity             sql.NullInt64
		status               string
		createdAt, updatedAt string
	)

	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Slug,
		&event.Price,
		&event.Currency,
		&capacity,
		&event.AttendeesCount,
		&event.IsFree,
		&status,
		&event.IsActive,
		&event.IsOnline,
		&event.MeetingURL,
		&event.OrganizerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	if event.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if event.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	event.Status = models.Status(status)
	if capacity.Valid {
		c := int(capacity.Int64)
		event.Capacity = &c
	}

	return &event, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}

	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func classify(err error) error {
	var sqlErr *msqlite.Error
	if !errors.As(err, &sqlErr) {
		return err
	}

	switch sqlErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return &storage.UniqueViolationError{Field: uniqueField(sqlErr.Error()), Err: err}
	case sqlite3.SQLITE_CONSTRAINT:
		// connections without extended result codes
		if strings.Contains(sqlErr.Error(), "UNIQUE constraint failed") {
			return &storage.UniqueViolationError{Field: uniqueField(sqlErr.Error()), Err: err}
		}
	}

	return err
}

// uniqueField pulls the column out of "UNIQUE constraint failed: events.slug".
// Composite constraints name several columns; the first one is reported.
func uniqueField(msg string) string {
	const marker = "constraint failed: "

	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}

	cols := msg[i+len(marker):]
	if j := strings.IndexAny(cols, ", ("); j >= 0 {
		cols = cols[:j]
	}

	if k := strings.LastIndexByte(cols, '.'); k >= 0 {
		cols = cols[k+1:]
	}

	return strings.TrimSpace(cols)
}
