package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"eventrea/internal/models"
	"eventrea/internal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "title", "description", "slug", "price", "currency", "capacity", "attendees_count",
	"is_free", "status", "is_active", "is_online", "meeting_url", "organizer_id", "created_at", "updated_at",
}

const eventID = "5b1f8f3e-4c3a-4f5e-9a4e-2f0d6a1f7c11"

var testTime = time.Date(2024, 12, 25, 18, 0, 0, 0, time.UTC)

func eventRow(id, slug string) []driver.Value {
	return []driver.Value{
		id, "Tech Conference 2024!", "talks", slug, 10.0, "NGN", int64(200), int64(3),
		false, "published", true, false, "", "user-1", testTime, testTime,
	}
}

func newMock(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(db), mock
}

func TestStorage_Migrate(t *testing.T) {
	s, mock := newMock(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS events`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStorage_CreateEvent(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		mock      func(mock sqlmock.Sqlmock)
		wantErr   bool
		wantField string
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO events \(id, title, description, slug`).
					WithArgs(sqlmock.AnyArg(), "Tech Conference 2024!", "talks", "tech-conference-2024",
						0.0, "NGN", nil, 0, false, "draft", true, false, "", "user-1", testTime, testTime).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "slug unique violation",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "events_slug_key"})
			},
			wantErr:   true,
			wantField: storage.FieldSlug,
		},
		{
			name: "primary key unique violation",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "events_pkey"})
			},
			wantErr:   true,
			wantField: storage.FieldID,
		},
		{
			name: "check violation",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO events`).
					WillReturnError(&pq.Error{Code: "23514", Constraint: "events_price_check"})
			},
			wantErr: true,
		},
		{
			name: "connection error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`INSERT INTO events`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t)
			tt.mock(mock)

			e := models.NewEvent(models.Draft{Title: "Tech Conference 2024!", Description: "talks", OrganizerID: "user-1"},
				"tech-conference-2024", testTime)

			err := s.CreateEvent(ctx, &e)
			require.NoError(t, mock.ExpectationsWereMet())

			if !tt.wantErr {
				require.NoError(t, err)
				_, parseErr := uuid.Parse(e.ID)
				require.NoError(t, parseErr)
				return
			}

			require.Error(t, err)
			assert.Empty(t, e.ID)
			assert.Equal(t, tt.wantField == storage.FieldSlug, storage.IsUniqueViolation(err, storage.FieldSlug))
			if tt.wantField != "" {
				assert.True(t, storage.IsUniqueViolation(err, tt.wantField))
			}
		})
	}
}

func TestStorage_FindEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("by slug", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE slug = \$1`).
			WithArgs("tech-conference-2024").
			WillReturnRows(sqlmock.NewRows(columns).AddRow(eventRow(eventID, "tech-conference-2024")...))

		got, err := s.FindEvent(ctx, models.BySlug("tech-conference-2024"))
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())

		assert.Equal(t, eventID, got.ID)
		assert.Equal(t, "tech-conference-2024", got.Slug)
		assert.Equal(t, models.StatusPublished, got.Status)
		require.NotNil(t, got.Capacity)
		assert.Equal(t, 200, *got.Capacity)
		assert.Equal(t, 3, got.AttendeesCount)
		assert.Equal(t, testTime, got.CreatedAt)
	})

	t.Run("by id", func(t *testing.T) {
		s, mock := newMock(t)
		row := eventRow(eventID, "x")
		row[6] = nil
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE id = \$1`).
			WithArgs(eventID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(row...))

		got, err := s.FindEvent(ctx, models.ByID(eventID))
		require.NoError(t, err)
		assert.Nil(t, got.Capacity)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE slug = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := s.FindEvent(ctx, models.BySlug("missing"))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		s, mock := newMock(t)

		_, err := s.FindEvent(ctx, models.ByID("not-a-uuid"))
		require.ErrorIs(t, err, storage.ErrInvalidID)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStorage_FindEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("no filters", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM events ORDER BY created_at DESC`).
			WillReturnRows(sqlmock.NewRows(columns))

		got, err := s.FindEvents(ctx, models.Query{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("all filters", func(t *testing.T) {
		s, mock := newMock(t)
		active, online := true, false
		mock.ExpectQuery(`SELECT (.+) FROM events WHERE status = \$1 AND is_active = \$2 AND is_online = \$3 ` +
			`AND \(title ILIKE \$4 OR description ILIKE \$4\) AND title ILIKE \$5 ORDER BY created_at DESC`).
			WithArgs("published", true, false, "%go%", "%conf%").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(eventRow(eventID, "a")...).
				AddRow(eventRow("8d2c1d7a-0d4e-4a43-9d3a-6b5a8c2e4f10", "b")...))

		got, err := s.FindEvents(ctx, models.Query{
			Status:   models.StatusPublished,
			IsActive: &active,
			IsOnline: &online,
			Search:   "go",
			Title:    "conf",
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Slug)
		assert.Equal(t, "b", got[1].Slug)
	})

	t.Run("query error", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`SELECT (.+) FROM events`).WillReturnError(sql.ErrConnDone)

		_, err := s.FindEvents(ctx, models.Query{})
		require.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestStorage_UpdateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, mock := newMock(t)
		desc := "updated"
		online := true
		mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\), description = \$1, is_online = \$2\s+WHERE id = \$3\s+RETURNING`).
			WithArgs("updated", true, eventID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(eventRow(eventID, "tech-conference-2024")...))

		got, err := s.UpdateEvent(ctx, models.ByID(eventID), models.Patch{
			Description: &desc,
			Attributes:  models.Attributes{IsOnline: &online},
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, eventID, got.ID)
	})

	t.Run("empty patch only touches updated_at", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`UPDATE events SET updated_at = NOW\(\)\s+WHERE id = \$1`).
			WithArgs(eventID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(eventRow(eventID, "x")...))

		_, err := s.UpdateEvent(ctx, models.ByID(eventID), models.Patch{})
		require.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`UPDATE events`).WillReturnError(sql.ErrNoRows)

		_, err := s.UpdateEvent(ctx, models.ByID(eventID), models.Patch{})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStorage_DeleteEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`DELETE FROM events WHERE id = \$1 RETURNING`).
			WithArgs(eventID).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(eventRow(eventID, "gone")...))

		got, err := s.DeleteEvent(ctx, models.ByID(eventID))
		require.NoError(t, err)
		assert.Equal(t, "gone", got.Slug)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMock(t)
		mock.ExpectQuery(`DELETE FROM events`).WillReturnError(sql.ErrNoRows)

		_, err := s.DeleteEvent(ctx, models.ByID(eventID))
		require.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestConstraintField(t *testing.T) {
	assert.Equal(t, "slug", constraintField("events_slug_key"))
	assert.Equal(t, "id", constraintField("events_pkey"))
	assert.Equal(t, "organizer_id", constraintField("events_organizer_id_key"))
}
