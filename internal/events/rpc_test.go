package events

import (
	"context"
	"errors"
	"testing"

	"eventrea/internal/bus"
	"eventrea/internal/eventsapi"
	"eventrea/internal/events/mocks"
	"eventrea/internal/lib/logger/handlers/slogdiscard"
	"eventrea/internal/models"
	"eventrea/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, opts ...Option) (bus.Local, *mocks.Store) {
	t.Helper()

	store := mocks.NewStore(t)
	log := slogdiscard.NewDiscardLogger()

	services := bus.Services{}
	Register(services, NewService(log, store, opts...), log)

	return bus.Local{Services: services}, store
}

func TestRegister_Subjects(t *testing.T) {
	t.Parallel()

	l, _ := newLocal(t)

	for _, subj := range []string{
		eventsapi.FindBySlug,
		eventsapi.FindAll,
		eventsapi.Create,
		eventsapi.Update,
		eventsapi.Remove,
	} {
		assert.Contains(t, l.Services, subj)
	}
}

func TestRegister_Create(t *testing.T) {
	t.Parallel()

	l, store := newLocal(t)
	store.On("CreateEvent", mock.Anything, withSlug(baseSlug)).Run(setID(eventID)).Return(nil).Once()

	var got models.Event
	err := l.Request(context.Background(), eventsapi.Create, models.Draft{Title: "Tech Conference 2024!"}, &got)
	require.NoError(t, err)
	assert.Equal(t, eventID, got.ID)
	assert.Equal(t, baseSlug, got.Slug)
	assert.Equal(t, models.StatusDraft, got.Status)
}

func TestRegister_FindAll(t *testing.T) {
	t.Parallel()

	l, store := newLocal(t)
	active := true
	q := models.Query{IsActive: &active, Search: "go"}
	store.On("FindEvents", mock.Anything, q).Return([]models.Event{{Slug: "go-meetup"}}, nil).Once()

	var got []models.Event
	require.NoError(t, l.Request(context.Background(), eventsapi.FindAll, q, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "go-meetup", got[0].Slug)
}

func TestRegister_UpdateAndRemove(t *testing.T) {
	t.Parallel()

	l, store := newLocal(t)
	online := true
	patch := models.Patch{Attributes: models.Attributes{IsOnline: &online}}

	store.On("UpdateEvent", mock.Anything, models.ByID(eventID), patch).
		Return(&models.Event{ID: eventID, IsOnline: true}, nil).Once()
	store.On("DeleteEvent", mock.Anything, models.ByID(eventID)).
		Return(&models.Event{ID: eventID, Slug: "gone"}, nil).Once()

	var updated models.Event
	require.NoError(t, l.Request(context.Background(), eventsapi.Update, eventsapi.UpdateRequest{ID: eventID, Patch: patch}, &updated))
	assert.True(t, updated.IsOnline)

	var removed models.Event
	require.NoError(t, l.Request(context.Background(), eventsapi.Remove, eventsapi.RemoveRequest{ID: eventID}, &removed))
	assert.Equal(t, "gone", removed.Slug)
}

func TestRegister_Faults(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		subj      string
		req       any
		opts      []Option
		mockSetup func(store *mocks.Store)
		want      *bus.Fault
		wantMsg   string
	}{
		{
			name:      "invalid title",
			subj:      eventsapi.Create,
			req:       models.Draft{Title: "???"},
			mockSetup: func(store *mocks.Store) {},
			want:      bus.ErrInvalid,
			wantMsg:   ErrInvalidTitle.Error(),
		},
		{
			name:      "missing slug",
			subj:      eventsapi.FindBySlug,
			req:       eventsapi.FindBySlugRequest{},
			mockSetup: func(store *mocks.Store) {},
			want:      bus.ErrInvalid,
		},
		{
			name:      "missing id",
			subj:      eventsapi.Remove,
			req:       eventsapi.RemoveRequest{},
			mockSetup: func(store *mocks.Store) {},
			want:      bus.ErrInvalid,
		},
		{
			name: "malformed id",
			subj: eventsapi.Remove,
			req:  eventsapi.RemoveRequest{ID: "42"},
			mockSetup: func(store *mocks.Store) {
				store.On("DeleteEvent", mock.Anything, models.ByID("42")).Return(nil, storage.ErrInvalidID).Once()
			},
			want:    bus.ErrInvalid,
			wantMsg: storage.ErrInvalidID.Error(),
		},
		{
			name:      "malformed payload",
			subj:      eventsapi.Create,
			req:       []int{1, 2},
			mockSetup: func(store *mocks.Store) {},
			want:      bus.ErrInvalid,
		},
		{
			name: "not found",
			subj: eventsapi.FindBySlug,
			req:  eventsapi.FindBySlugRequest{Slug: "missing"},
			mockSetup: func(store *mocks.Store) {
				store.On("FindEvent", mock.Anything, models.BySlug("missing")).Return(nil, storage.ErrNotFound).Once()
			},
			want: bus.ErrNotFound,
		},
		{
			name: "retry exhausted",
			subj: eventsapi.Create,
			req:  models.Draft{Title: "Go Meetup"},
			opts: []Option{WithMaxAttempts(1)},
			mockSetup: func(store *mocks.Store) {
				store.On("CreateEvent", mock.Anything, mock.Anything).Return(slugTaken()).Once()
			},
			want: bus.ErrConflict,
		},
		{
			name: "store failure is hidden",
			subj: eventsapi.FindAll,
			req:  models.Query{},
			mockSetup: func(store *mocks.Store) {
				store.On("FindEvents", mock.Anything, mock.Anything).Return(nil, errors.New("pq: password authentication failed")).Once()
			},
			want: bus.ErrInternal,
		},
		{
			name: "canceled",
			subj: eventsapi.FindAll,
			req:  models.Query{},
			mockSetup: func(store *mocks.Store) {
				store.On("FindEvents", mock.Anything, mock.Anything).Return(nil, context.Canceled).Once()
			},
			want: bus.ErrCanceled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			l, store := newLocal(t, tc.opts...)
			tc.mockSetup(store)

			err := l.Request(context.Background(), tc.subj, tc.req, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.NotContains(t, err.Error(), "password")

			if tc.wantMsg != "" {
				var f *bus.Fault
				require.ErrorAs(t, err, &f)
				assert.Equal(t, tc.wantMsg, f.Message)
			}
		})
	}
}
