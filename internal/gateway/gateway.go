// Package gateway is the public API's view of the events service: typed calls
// over the bus, each bounded by a timeout.
package gateway

import (
	"context"
	"fmt"
	"time"

	"eventrea/internal/bus"
	"eventrea/internal/eventsapi"
	"eventrea/internal/models"
)

type Client struct {
	bus     bus.Requester
	timeout time.Duration
}

// New returns a client sending through r. A zero timeout leaves the caller's
// deadline alone.
func New(r bus.Requester, timeout time.Duration) *Client {
	return &Client{bus: r, timeout: timeout}
}

func (c *Client) CreateEvent(ctx context.Context, d models.Draft) (*models.Event, error) {
	var event models.Event
	if err := c.request(ctx, eventsapi.Create, d, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (c *Client) GetEvent(ctx context.Context, slug string) (*models.Event, error) {
	var event models.Event
	if err := c.request(ctx, eventsapi.FindBySlug, eventsapi.FindBySlugRequest{Slug: slug}, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (c *Client) ListEvents(ctx context.Context, q models.Query) ([]models.Event, error) {
	events := make([]models.Event, 0)
	if err := c.request(ctx, eventsapi.FindAll, q, &events); err != nil {
		return nil, err
	}

	return events, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, p models.Patch) (*models.Event, error) {
	var event models.Event
	if err := c.request(ctx, eventsapi.Update, eventsapi.UpdateRequest{ID: id, Patch: p}, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := c.request(ctx, eventsapi.Remove, eventsapi.RemoveRequest{ID: id}, &event); err != nil {
		return nil, err
	}

	return &event, nil
}

func (c *Client) request(ctx context.Context, subj string, req, res any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.bus.Request(ctx, subj, req, res); err != nil {
		return fmt.Errorf("gateway: %s: %w", subj, err)
	}

	return nil
}
