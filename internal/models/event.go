package models

import (
	"strings"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

const DefaultCurrency = "NGN"

type Event struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Slug           string    `json:"slug"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	Capacity       *int      `json:"capacity,omitempty"`
	AttendeesCount int       `json:"attendees_count"`
	IsFree         bool      `json:"is_free"`
	Status         Status    `json:"status"`
	IsActive       bool      `json:"is_active"`
	IsOnline       bool      `json:"is_online"`
	MeetingURL     string    `json:"meeting_url,omitempty"`
	OrganizerID    string    `json:"organizer_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Attributes are the plain event fields. A nil field keeps the default on
// create and the stored value on update.
type Attributes struct {
	Price          *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Currency       *string  `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Capacity       *int     `json:"capacity,omitempty" validate:"omitempty,gte=1"`
	AttendeesCount *int     `json:"attendees_count,omitempty" validate:"omitempty,gte=0"`
	IsFree         *bool    `json:"is_free,omitempty"`
	Status         *Status  `json:"status,omitempty" validate:"omitempty,oneof=draft published cancelled completed"`
	IsActive       *bool    `json:"is_active,omitempty"`
	IsOnline       *bool    `json:"is_online,omitempty"`
	MeetingURL     *string  `json:"meeting_url,omitempty" validate:"omitempty,url"`
}

// Draft is everything needed to create an event except its slug.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrganizerID string `json:"organizer_id,omitempty"`
	Attributes
}

// Patch is a partial update. Title and slug are fixed at creation.
type Patch struct {
	Description *string `json:"description,omitempty"`
	Attributes
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Description == nil && p.Attributes == (Attributes{})
}

// Query filters a listing. Zero fields do not filter.
type Query struct {
	Title    string `json:"title,omitempty"`
	Status   Status `json:"status,omitempty" validate:"omitempty,oneof=draft published cancelled completed"`
	IsActive *bool  `json:"is_active,omitempty"`
	IsOnline *bool  `json:"is_online,omitempty"`
	Search   string `json:"search,omitempty"`
}

// Lookup addresses a single event by id or, when ID is empty, by slug.
type Lookup struct {
	ID   string
	Slug string
}

func ByID(id string) Lookup { return Lookup{ID: id} }

func BySlug(slug string) Lookup { return Lookup{Slug: slug} }

// NewEvent applies the defaults for a fresh event named slug.
func NewEvent(d Draft, slug string, now time.Time) Event {
	e := Event{
		Title:       strings.TrimSpace(d.Title),
		Description: d.Description,
		Slug:        slug,
		Currency:    DefaultCurrency,
		Status:      StatusDraft,
		IsActive:    true,
		OrganizerID: d.OrganizerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	a := d.Attributes.Normalize()
	if a.Price != nil {
		e.Price = *a.Price
	}
	if a.Currency != nil {
		e.Currency = *a.Currency
	}
	if a.Capacity != nil {
		c := *a.Capacity
		e.Capacity = &c
	}
	if a.AttendeesCount != nil {
		e.AttendeesCount = *a.AttendeesCount
	}
	if a.IsFree != nil {
		e.IsFree = *a.IsFree
	}
	if a.Status != nil {
		e.Status = *a.Status
	}
	if a.IsActive != nil {
		e.IsActive = *a.IsActive
	}
	if a.IsOnline != nil {
		e.IsOnline = *a.IsOnline
	}
	if a.MeetingURL != nil {
		e.MeetingURL = *a.MeetingURL
	}

	return e
}

// Normalize returns a copy with the currency code trimmed and upper-cased.
func (a Attributes) Normalize() Attributes {
	if a.Currency != nil {
		c := strings.ToUpper(strings.TrimSpace(*a.Currency))
		a.Currency = &c
	}

	return a
}
