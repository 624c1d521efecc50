package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventrea/internal/config"
	"eventrea/internal/models"
	"eventrea/internal/storage"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const eventColumns = `id, title, description, slug, price, currency, capacity, attendees_count,
		is_free, status, is_active, is_online, meeting_url, organizer_id, created_at, updated_at`

const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id              UUID PRIMARY KEY,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		slug            TEXT NOT NULL,
		price           DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0),
		currency        TEXT NOT NULL DEFAULT 'NGN',
		capacity        INTEGER CHECK (capacity >= 1),
		attendees_count INTEGER NOT NULL DEFAULT 0 CHECK (attendees_count >= 0),
		is_free         BOOLEAN NOT NULL DEFAULT FALSE,
		status          TEXT NOT NULL DEFAULT 'draft',
		is_active       BOOLEAN NOT NULL DEFAULT TRUE,
		is_online       BOOLEAN NOT NULL DEFAULT FALSE,
		meeting_url     TEXT NOT NULL DEFAULT '',
		organizer_id    TEXT NOT NULL DEFAULT '',
		created_at      TIMESTAMPTZ NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL,
		CONSTRAINT events_slug_key UNIQUE (slug)
	);
	CREATE INDEX IF NOT EXISTS events_status_idx ON events (status);
	CREATE INDEX IF NOT EXISTS events_created_at_idx ON events (created_at DESC);`

type Storage struct {
	DB *sql.DB
}

func InitDB(dbCfg *config.Database) (*Storage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.User,
		dbCfg.Password,
		dbCfg.DBName,
		dbCfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	return New(db), nil
}

func New(db *sql.DB) *Storage {
	return &Storage{DB: db}
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

// CreateEvent inserts e under a fresh id. A clash on the slug constraint comes
// back as *storage.UniqueViolationError with Field "slug".
func (s *Storage) CreateEvent(ctx context.Context, e *models.Event) error {
	const op = "storage.postgres.CreateEvent"

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

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
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	e.ID = id

	return nil
}

func (s *Storage) FindEvent(ctx context.Context, l models.Lookup) (*models.Event, error) {
	const op = "storage.postgres.FindEvent"

	column, value, err := lookup(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + column + ` = $1`

	event, err := scanEvent(s.DB.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func (s *Storage) FindEvents(ctx context.Context, q models.Query) ([]models.Event, error) {
	const op = "storage.postgres.FindEvents"

	var (
		where []string
		args  []any
	)

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if q.Status != "" {
		add("status = $%d", string(q.Status))
	}
	if q.IsActive != nil {
		add("is_active = $%d", *q.IsActive)
	}
	if q.IsOnline != nil {
		add("is_online = $%d", *q.IsOnline)
	}
	if q.Search != "" {
		args = append(args, storage.LikePattern(q.Search))
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	if q.Title != "" {
		add("title ILIKE $%d", storage.LikePattern(q.Title))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

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

// UpdateEvent overwrites the attributes set in p and bumps updated_at.
func (s *Storage) UpdateEvent(ctx context.Context, l models.Lookup, p models.Patch) (*models.Event, error) {
	const op = "storage.postgres.UpdateEvent"

	column, value, err := lookup(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set := []string{"updated_at = NOW()"}
	var args []any
	for _, c := range storage.PatchColumns(p) {
		args = append(args, c.Value)
		set = append(set, fmt.Sprintf("%s = $%d", c.Name, len(args)))
	}
	args = append(args, value)

	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE %s = $%d
		RETURNING %s`, strings.Join(set, ", "), column, len(args), eventColumns)

	event, err := scanEvent(s.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	return event, nil
}

func (s *Storage) DeleteEvent(ctx context.Context, l models.Lookup) (*models.Event, error) {
	const op = "storage.postgres.DeleteEvent"

	column, value, err := lookup(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `DELETE FROM events WHERE ` + column + ` = $1 RETURNING ` + eventColumns

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
		event    models.Event
		capacity sql.NullInt64
		status   string
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
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
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

// classify turns a unique_violation into *storage.UniqueViolationError naming
// the column behind the violated constraint.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return &storage.UniqueViolationError{Field: constraintField(pqErr.Constraint), Err: err}
	}

	return err
}

// constraintField maps postgres' default constraint names (events_pkey,
// events_<column>_key) back to the column.
func constraintField(constraint string) string {
	if constraint == "events_pkey" {
		return storage.FieldID
	}

	return strings.TrimSuffix(strings.TrimPrefix(constraint, "events_"), "_key")
}
