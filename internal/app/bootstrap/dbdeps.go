// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// It is created in ConnectDB and passed to EnsureSchema, Startup,
// BuildHandler, and Shutdown.
type DBDeps struct {
	// MongoDB client and database. Both are nil unless the sheet cache uses
	// the mongo backend.
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage serves the header logo.
	FileStorage storage.Store
}
