// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// Runtime is allocated in ConnectDB and filled in by Startup, so every
// hook that receives a copy of DBDeps sees the same services and workers.
type DBDeps struct {
	PathwayMongoClient   *mongo.Client
	PathwayMongoDatabase *mongo.Database

	Runtime *Runtime
}
