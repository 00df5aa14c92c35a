// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/pathway/internal/app/services/curriculum"
	curriculumstore "github.com/dalemusser/pathway/internal/app/store/curriculum"
	"github.com/dalemusser/pathway/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetAppName("pathway")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("pinging MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		PathwayMongoClient:   client,
		PathwayMongoDatabase: client.Database(appCfg.MongoDatabase),
		Runtime:              &Runtime{},
	}, nil
}

// EnsureSchema creates indexes and seeds the curriculum catalog. Both
// steps are idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := indexes.EnsureAll(ctx, deps.PathwayMongoDatabase, logger); err != nil {
		return err
	}

	cat, err := curriculum.Load(appCfg.CurriculumPath)
	if err != nil {
		logger.Error("curriculum load failed", zap.String("path", appCfg.CurriculumPath), zap.Error(err))
		return err
	}
	return curriculum.Seed(ctx, curriculumstore.New(deps.PathwayMongoDatabase), cat, logger)
}
