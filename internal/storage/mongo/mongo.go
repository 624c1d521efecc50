// Package mongo stores events in a MongoDB collection with a unique index on
// slug.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eventrea/internal/config"
	"eventrea/internal/models"
	"eventrea/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "events"
	slugIndex      = "slug_1"
)

type eventDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Title          string             `bson:"title"`
	Description    string             `bson:"description"`
	Slug           string             `bson:"slug"`
	Price          float64            `bson:"price"`
	Currency       string             `bson:"currency"`
	Capacity       *int               `bson:"capacity,omitempty"`
	AttendeesCount int                `bson:"attendees_count"`
	IsFree         bool               `bson:"is_free"`
	Status         string             `bson:"status"`
	IsActive       bool               `bson:"is_active"`
	IsOnline       bool               `bson:"is_online"`
	MeetingURL     string             `bson:"meeting_url,omitempty"`
	OrganizerID    string             `bson:"organizer_id,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at"`
}

type Storage struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

func InitDB(ctx context.Context, cfg *config.Mongo) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := New(client.Database(cfg.Database).Collection(collectionName))
	s.client = client

	return s, nil
}

func New(coll *mongo.Collection) *Storage {
	return &Storage{coll: coll, now: time.Now}
}

func (s *Storage) Close() error {
	if s.client == nil {
		return nil
	}

	return s.client.Disconnect(context.Background())
}

// Migrate creates the unique slug index and the listing indexes.
func (s *Storage) Migrate(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetName(slugIndex).SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create event indexes: %w", err)
	}

	return nil
}

func (s *Storage) CreateEvent(ctx context.Context, e *models.Event) error {
	const op = "storage.mongo.CreateEvent"

	doc := toDocument(e)
	doc.ID = primitive.NewObjectID()

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	e.ID = doc.ID.Hex()

	return nil
}

func (s *Storage) FindEvent(ctx context.Context, l models.Lookup) (*models.Event, error) {
	const op = "storage.mongo.FindEvent"

	filter, err := lookupFilter(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	event, err := decodeOne(s.coll.FindOne(ctx, filter))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func (s *Storage) FindEvents(ctx context.Context, q models.Query) ([]models.Event, error) {
	const op = "storage.mongo.FindEvents"

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := s.coll.Find(ctx, buildFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get events: %w", op, err)
	}

	var docs []eventDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s: failed to decode events: %w", op, err)
	}

	events := make([]models.Event, 0, len(docs))
	for i := range docs {
		events = append(events, docs[i].toModel())
	}

	return events, nil
}

func (s *Storage) UpdateEvent(ctx context.Context, l models.Lookup, p models.Patch) (*models.Event, error) {
	const op = "storage.mongo.UpdateEvent"

	filter, err := lookupFilter(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	event, err := decodeOne(s.coll.FindOneAndUpdate(ctx, filter, updateDocument(p, s.now()), opts))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}

	return event, nil
}

func (s *Storage) DeleteEvent(ctx context.Context, l models.Lookup) (*models.Event, error) {
	const op = "storage.mongo.DeleteEvent"

	filter, err := lookupFilter(l)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	event, err := decodeOne(s.coll.FindOneAndDelete(ctx, filter))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func decodeOne(res *mongo.SingleResult) (*models.Event, error) {
	var doc eventDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	event := doc.toModel()

	return &event, nil
}

func lookupFilter(l models.Lookup) (bson.D, error) {
	if l.ID != "" {
		id, err := primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, storage.ErrInvalidID
		}
		return bson.D{{Key: "_id", Value: id}}, nil
	}

	return bson.D{{Key: "slug", Value: l.Slug}}, nil
}

// buildFilter ANDs every set field of q. Search matches title or description;
// both it and Title are case-insensitive substring matches.
func buildFilter(q models.Query) bson.D {
	filter := bson.D{}

	if q.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: string(q.Status)})
	}
	if q.IsActive != nil {
		filter = append(filter, bson.E{Key: "is_active", Value: *q.IsActive})
	}
	if q.IsOnline != nil {
		filter = append(filter, bson.E{Key: "is_online", Value: *q.IsOnline})
	}
	if q.Search != "" {
		re := contains(q.Search)
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}})
	}
	if q.Title != "" {
		filter = append(filter, bson.E{Key: "title", Value: contains(q.Title)})
	}

	return filter
}

func contains(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func updateDocument(p models.Patch, now time.Time) bson.D {
	set := bson.D{{Key: "updated_at", Value: now}}
	for _, c := range storage.PatchColumns(p) {
		set = append(set, bson.E{Key: c.Name, Value: c.Value})
	}

	return bson.D{{Key: "$set", Value: set}}
}

func toDocument(e *models.Event) eventDocument {
	doc := eventDocument{
		Title:          e.Title,
		Description:    e.Description,
		Slug:           e.Slug,
		Price:          e.Price,
		Currency:       e.Currency,
		AttendeesCount: e.AttendeesCount,
		IsFree:         e.IsFree,
		Status:         string(e.Status),
		IsActive:       e.IsActive,
		IsOnline:       e.IsOnline,
		MeetingURL:     e.MeetingURL,
		OrganizerID:    e.OrganizerID,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
	if e.Capacity != nil {
		c := *e.Capacity
		doc.Capacity = &c
	}

	return doc
}

func (d *eventDocument) toModel() models.Event {
	return models.Event{
		ID:             d.ID.Hex(),
		Title:          d.Title,
		Description:    d.Description,
		Slug:           d.Slug,
		Price:          d.Price,
		Currency:       d.Currency,
		Capacity:       d.Capacity,
		AttendeesCount: d.AttendeesCount,
		IsFree:         d.IsFree,
		Status:         models.Status(d.Status),
		IsActive:       d.IsActive,
		IsOnline:       d.IsOnline,
		MeetingURL:     d.MeetingURL,
		OrganizerID:    d.OrganizerID,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func classify(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	return &storage.UniqueViolationError{Field: duplicateField(err), Err: err}
}

// duplicateField names the key behind an E11000 error. Servers that send
// keyValue are trusted first; older ones only name the index in the message.
func duplicateField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code != 11000 {
				continue
			}
			if field := keyValueField(e.Raw); field != "" {
				return field
			}
			if field := indexField(e.Message); field != "" {
				return field
			}
		}
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if field := keyValueField(ce.Raw); field != "" {
			return field
		}
		return indexField(ce.Message)
	}

	return indexField(err.Error())
}

func keyValueField(raw bson.Raw) string {
	if len(raw) == 0 {
		return ""
	}

	val, err := raw.LookupErr("keyValue")
	if err != nil {
		return ""
	}

	doc, ok := val.DocumentOK()
	if !ok {
		return ""
	}

	elems, err := doc.Elements()
	if err != nil || len(elems) == 0 {
		return ""
	}

	return fieldName(elems[0].Key())
}

// indexField reads "... index: slug_1 dup key: ..." and maps the default index
// name back to its first key.
func indexField(msg string) string {
	const marker = "index: "

	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}

	name := msg[i+len(marker):]
	if j := strings.IndexByte(name, ' '); j >= 0 {
		name = name[:j]
	}

	if name == "_id_" {
		return storage.FieldID
	}

	if j := strings.LastIndexByte(name, '_'); j > 0 {
		name = name[:j]
	}

	return fieldName(name)
}

func fieldName(key string) string {
	if key == "_id" {
		return storage.FieldID
	}

	return key
}
