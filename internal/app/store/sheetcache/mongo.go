// internal/app/store/sheetcache/mongo.go
package sheetcache

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/stratametrics/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection backing the Mongo cache.
const CollectionName = "sheet_snapshots"

// snapshot is the stored form of an Entry.
type snapshot struct {
	Tab       string             `bson:"_id"`
	Table     models.MetricTable `bson:"table"`
	FetchedAt time.Time          `bson:"fetched_at"`
	ExpiresAt time.Time          `bson:"expires_at"`
}

// Mongo is a Cache stored in the sheet_snapshots collection, so the window
// survives restarts. The TTL index on expires_at (created by indexes.EnsureAll)
// removes stale documents; reads also filter on expires_at because the TTL
// monitor runs only periodically. Documents are keyed by tab in _id.
type Mongo struct {
	c   *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// NewMongo creates a Mongo cache. A non-positive ttl uses DefaultTTL.
func NewMongo(db *mongo.Database, ttl time.Duration) *Mongo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Mongo{
		c:   db.Collection(CollectionName),
		ttl: ttl,
		now: time.Now,
	}
}

// SetClock replaces the time source (tests).
func (m *Mongo) SetClock(now func() time.Time) {
	m.now = now
}

// Get implements Cache.
func (m *Mongo) Get(ctx context.Context, tab string) (Entry, bool, error) {
	var doc snapshot
	err := m.c.FindOne(ctx, bson.M{
		"_id":        tab,
		"expires_at": bson.M{"$gt": m.now()},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	table := doc.Table
	return Entry{
		Tab:       doc.Tab,
		Table:     &table,
		FetchedAt: doc.FetchedAt,
		ExpiresAt: doc.ExpiresAt,
	}, true, nil
}

// Put implements Cache.
func (m *Mongo) Put(ctx context.Context, tab string, table *models.MetricTable) (Entry, error) {
	now := m.now().UTC()
	doc := snapshot{
		Tab:       tab,
		Table:     *table,
		FetchedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	_, err := m.c.ReplaceOne(ctx, bson.M{"_id": tab}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return Entry{}, err
	}
	return Entry{Tab: tab, Table: table, FetchedAt: doc.FetchedAt, ExpiresAt: doc.ExpiresAt}, nil
}

// Purge implements Cache.
func (m *Mongo) Purge(ctx context.Context) (int64, error) {
	res, err := m.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": m.now()}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
