package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"eventrea/internal/bus"
	"eventrea/internal/eventsapi"
	"eventrea/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder answers every subject with reply and remembers the last request.
type recorder struct {
	subj  string
	data  json.RawMessage
	reply any
	err   error
	ctx   context.Context
}

func (r *recorder) services(subjects ...string) bus.Services {
	s := bus.Services{}
	for _, subj := range subjects {
		s[subj] = bus.ServiceFunc(func(ctx context.Context, m *bus.Msg) (any, error) {
			r.subj, r.data, r.ctx = m.Subj, m.Data, ctx
			return r.reply, r.err
		})
	}
	return s
}

var allSubjects = []string{eventsapi.Create, eventsapi.FindBySlug, eventsapi.FindAll, eventsapi.Update, eventsapi.Remove}

func TestClient_Requests(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	event := models.Event{ID: "1", Slug: "go-meetup", Title: "Go Meetup"}
	desc := "new"

	testCases := []struct {
		name     string
		call     func(c *Client) (any, error)
		reply    any
		wantSubj string
		wantData string
	}{
		{
			name: "create",
			call: func(c *Client) (any, error) {
				return c.CreateEvent(ctx, models.Draft{Title: "Go Meetup", OrganizerID: "u1"})
			},
			reply:    event,
			wantSubj: eventsapi.Create,
			wantData: `{"title":"Go Meetup","description":"","organizer_id":"u1"}`,
		},
		{
			name:     "get",
			call:     func(c *Client) (any, error) { return c.GetEvent(ctx, "go-meetup") },
			reply:    event,
			wantSubj: eventsapi.FindBySlug,
			wantData: `{"slug":"go-meetup"}`,
		},
		{
			name:     "list",
			call:     func(c *Client) (any, error) { return c.ListEvents(ctx, models.Query{Search: "go"}) },
			reply:    []models.Event{event},
			wantSubj: eventsapi.FindAll,
			wantData: `{"search":"go"}`,
		},
		{
			name: "update",
			call: func(c *Client) (any, error) {
				return c.UpdateEvent(ctx, "1", models.Patch{Description: &desc})
			},
			reply:    event,
			wantSubj: eventsapi.Update,
			wantData: `{"id":"1","description":"new"}`,
		},
		{
			name:     "delete",
			call:     func(c *Client) (any, error) { return c.DeleteEvent(ctx, "1") },
			reply:    event,
			wantSubj: eventsapi.Remove,
			wantData: `{"id":"1"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := &recorder{reply: tc.reply}
			c := New(bus.Local{Services: rec.services(allSubjects...)}, time.Second)

			got, err := tc.call(c)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, tc.wantSubj, rec.subj)
			assert.JSONEq(t, tc.wantData, string(rec.data))

			_, hasDeadline := rec.ctx.Deadline()
			assert.True(t, hasDeadline)
		})
	}
}

func TestClient_EmptyList(t *testing.T) {
	t.Parallel()

	rec := &recorder{reply: []models.Event{}}
	c := New(bus.Local{Services: rec.services(eventsapi.FindAll)}, 0)

	got, err := c.ListEvents(context.Background(), models.Query{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, hasDeadline := rec.ctx.Deadline()
	assert.False(t, hasDeadline)
}

func TestClient_Fault(t *testing.T) {
	t.Parallel()

	rec := &recorder{err: bus.Errorf(bus.ErrNotFound, "event not found")}
	c := New(bus.Local{Services: rec.services(eventsapi.FindBySlug)}, time.Second)

	_, err := c.GetEvent(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, bus.ErrNotFound)
	assert.Contains(t, err.Error(), eventsapi.FindBySlug)
}
