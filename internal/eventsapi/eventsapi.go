// Package eventsapi is the message contract of the events service: the bus
// subjects it answers and their request bodies. Replies are models.Event or
// []models.Event.
package eventsapi

import "eventrea/internal/models"

const (
	FindBySlug = "events.findBySlug"
	FindAll    = "events.findAll"
	Create     = "events.create"
	Update     = "events.update"
	Remove     = "events.remove"
)

// Create takes a models.Draft and FindAll a models.Query.

type FindBySlugRequest struct {
	Slug string `json:"slug"`
}

type UpdateRequest struct {
	ID string `json:"id"`
	models.Patch
}

type RemoveRequest struct {
	ID string `json:"id"`
}
