package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/serroba/linkbot/internal/analytics"
	"github.com/serroba/linkbot/internal/shortener"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	CollectionLinks  = "short_links"
	CollectionClicks = "click_events"
	CollectionOwners = "owners"
)

type linkDocument struct {
	Alias       string     `bson:"alias"`
	OriginalURL string     `bson:"original_url"`
	OwnerID     int64      `bson:"owner_id"`
	CreatedAt   time.Time  `bson:"created_at"`
	Clicks      int64      `bson:"clicks"`
	LastClicked *time.Time `bson:"last_clicked,omitempty"`
}

type clickDocument struct {
	ID        string    `bson:"_id"`
	Alias     string    `bson:"alias"`
	IP        string    `bson:"ip_address"`
	UserAgent string    `bson:"user_agent"`
	Device    string    `bson:"device_type"`
	Location  string    `bson:"location"`
	Referrer  string    `bson:"referrer"`
	CreatedAt time.Time `bson:"created_at"`
}

// ConnectMongo connects and pings the server.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)

		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// MongoStore is the MongoDB backend. Counter updates and event inserts are
// separate writes; the counter is updated first so an event never exists
// without its link.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a store on the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (m *MongoStore) links() *mongo.Collection  { return m.db.Collection(CollectionLinks) }
func (m *MongoStore) clicks() *mongo.Collection { return m.db.Collection(CollectionClicks) }
func (m *MongoStore) owners() *mongo.Collection { return m.db.Collection(CollectionOwners) }

// EnsureIndexes creates the unique and lookup indexes.
func (m *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		m.links(): {
			{Keys: bson.D{{Key: "alias", Value: 1}}, Options: options.Index().SetName("alias_unique").SetUnique(true)},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("owner_recent")},
		},
		m.clicks(): {
			{Keys: bson.D{{Key: "alias", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("alias_recent")},
		},
		m.owners(): {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user_id_unique").SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll.Name(), err)
		}
	}

	return nil
}

func (m *MongoStore) Save(ctx context.Context, link *shortener.ShortLink) error {
	_, err := m.links().InsertOne(ctx, linkDocument{
		Alias:       string(link.Alias),
		OriginalURL: link.OriginalURL,
		OwnerID:     link.OwnerID,
		CreatedAt:   link.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return shortener.ErrAliasTaken
	}

	return err
}

func (m *MongoStore) GetByAlias(ctx context.Context, alias shortener.Alias) (*shortener.ShortLink, error) {
	var doc linkDocument

	err := m.links().FindOne(ctx, bson.M{"alias": string(alias)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return doc.toLink(), nil
}

func (m *MongoStore) ListByOwner(ctx context.Context, ownerID int64) ([]*shortener.ShortLink, error) {
	cursor, err := m.links().Find(ctx,
		bson.M{"owner_id": ownerID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "alias", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}

	var docs []linkDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	links := make([]*shortener.ShortLink, 0, len(docs))
	for i := range docs {
		links = append(links, docs[i].toLink())
	}

	return links, nil
}

func (m *MongoStore) EnsureOwner(ctx context.Context, owner *shortener.Owner) (bool, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"username":     owner.Username,
			"first_name":   owner.FirstName,
			"last_name":    owner.LastName,
			"last_seen_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":    owner.ID,
			"created_at": now,
		},
	}

	result, err := m.owners().UpdateOne(ctx,
		bson.M{"user_id": owner.ID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}

	return result.UpsertedCount > 0, nil
}

func (m *MongoStore) RecordClick(ctx context.Context, event *analytics.ClickEvent) error {
	result, err := m.links().UpdateOne(ctx,
		bson.M{"alias": string(event.Alias)},
		bson.M{
			"$inc": bson.M{"clicks": 1},
			"$max": bson.M{"last_clicked": event.OccurredAt},
		},
	)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return shortener.ErrNotFound
	}

	_, err = m.clicks().InsertOne(ctx, clickDocument{
		ID:        event.ID,
		Alias:     string(event.Alias),
		IP:        event.IP,
		UserAgent: event.UserAgent,
		Device:    event.Device,
		Location:  event.Location,
		Referrer:  event.Referrer,
		CreatedAt: event.OccurredAt,
	})

	return err
}

func (m *MongoStore) ListClicks(ctx context.Context, alias shortener.Alias) ([]*analytics.ClickEvent, error) {
	cursor, err := m.clicks().Find(ctx,
		bson.M{"alias": string(alias)},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	var docs []clickDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	events := make([]*analytics.ClickEvent, 0, len(docs))
	for _, doc := range docs {
		events = append(events, &analytics.ClickEvent{
			ID:         doc.ID,
			Alias:      shortener.Alias(doc.Alias),
			IP:         doc.IP,
			UserAgent:  doc.UserAgent,
			Device:     doc.Device,
			Location:   doc.Location,
			Referrer:   doc.Referrer,
			OccurredAt: doc.CreatedAt,
		})
	}

	return events, nil
}

// Ping checks server connectivity.
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, readpref.Primary())
}

// Shutdown disconnects the client.
func (m *MongoStore) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return m.db.Client().Disconnect(ctx)
}

func (d *linkDocument) toLink() *shortener.ShortLink {
	return &shortener.ShortLink{
		Alias:       shortener.Alias(d.Alias),
		OriginalURL: d.OriginalURL,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		Clicks:      d.Clicks,
		LastClicked: d.LastClicked,
	}
}

// Compile-time checks.
var (
	_ shortener.Repository      = (*MongoStore)(nil)
	_ shortener.OwnerRepository = (*MongoStore)(nil)
	_ analytics.Store           = (*MongoStore)(nil)
)
