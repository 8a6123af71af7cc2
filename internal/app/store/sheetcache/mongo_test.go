package sheetcache

import (
	"testing"
	"time"

	"github.com/dalemusser/stratametrics/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongo_TTLIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(CollectionName).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("list indexes: %v", err)
	}
	var specs []struct {
		Key                bson.D `bson:"key"`
		ExpireAfterSeconds *int32 `bson:"expireAfterSeconds"`
	}
	if err := cur.All(ctx, &specs); err != nil {
		t.Fatalf("decode indexes: %v", err)
	}

	for _, s := range specs {
		if len(s.Key) == 1 && s.Key[0].Key == "expires_at" {
			if s.ExpireAfterSeconds == nil || *s.ExpireAfterSeconds != 0 {
				t.Errorf("expires_at index TTL = %v, want 0", s.ExpireAfterSeconds)
			}
			return
		}
	}
	t.Errorf("no TTL index on expires_at in %s", CollectionName)
}

func TestMongo_PutGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewMongo(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Put(ctx, "Alcance", table("Alcance")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := store.Get(ctx, "Alcance")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() should find a fresh entry")
	}
	if got.Table.Tab != "Alcance" {
		t.Errorf("Table.Tab = %q, want Alcance", got.Table.Tab)
	}
	if len(got.Table.Rows) != 1 || got.Table.Rows[0][1] != "10" {
		t.Errorf("Table.Rows = %v, want [[Usuarios 10]]", got.Table.Rows)
	}
	if !got.Table.HasKey {
		t.Error("Table.HasKey should survive the round trip")
	}
}

func TestMongo_Upsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewMongo(db, 10*time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := table("Alcance")
	second := table("Alcance")
	second.Rows = [][]string{{"Usuarios", "99"}}

	_, _ = store.Put(ctx, "Alcance", first)
	if _, err := store.Put(ctx, "Alcance", second); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	n, err := db.Collection(CollectionName).CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("CountDocuments() error = %v", err)
	}
	if n != 1 {
		t.Errorf("documents = %d, want 1", n)
	}

	got, _, _ := store.Get(ctx, "Alcance")
	if got.Table.Rows[0][1] != "99" {
		t.Errorf("Get() returned stale row %v", got.Table.Rows[0])
	}
}

func TestMongo_ExpiredIsMiss(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewMongo(db, time.Minute)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	store.SetClock(func() time.Time { return now })
	_, _ = store.Put(ctx, "Alcance", table("Alcance"))

	store.SetClock(func() time.Time { return now.Add(2 * time.Minute) })
	if _, ok, err := store.Get(ctx, "Alcance"); err != nil || ok {
		t.Fatalf("Get() after window = ok %v, err %v; want miss", ok, err)
	}

	n, err := store.Purge(ctx)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Purge() = %d, want 1", n)
	}
}
