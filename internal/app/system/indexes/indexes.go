// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionIndexes is the desired index set for one collection.
type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func desired() []collectionIndexes {
	return []collectionIndexes{
		{"profiles", []mongo.IndexModel{
			index("idx_profiles_email", false, bson.E{Key: "email", Value: 1}),
		}},
		{"pairings", []mongo.IndexModel{
			// Joining looks pairings up by code; collisions are retried on insert.
			index("uniq_pairings_invite_code", true, bson.E{Key: "invite_code", Value: 1}),
			index("idx_pairings_leader_created", false, bson.E{Key: "leader_id", Value: 1}, bson.E{Key: "created_at", Value: -1}),
			index("idx_pairings_learner_created", false, bson.E{Key: "learner_id", Value: 1}, bson.E{Key: "created_at", Value: -1}),
		}},
		{"weekly_content", []mongo.IndexModel{
			index("uniq_weekly_content_week", true, bson.E{Key: "week_number", Value: 1}),
		}},
		{"assignments", []mongo.IndexModel{
			index("idx_assignments_week_order", false, bson.E{Key: "week_number", Value: 1}, bson.E{Key: "order_index", Value: 1}),
		}},
		{"assignment_progress", []mongo.IndexModel{
			index("uniq_progress_pairing_assignment_user", true,
				bson.E{Key: "pairing_id", Value: 1}, bson.E{Key: "assignment_id", Value: 1}, bson.E{Key: "user_id", Value: 1}),
			index("idx_progress_pairing_week", false, bson.E{Key: "pairing_id", Value: 1}, bson.E{Key: "week_number", Value: 1}),
		}},
		{"messages", []mongo.IndexModel{
			index("idx_messages_pairing_created", false,
				bson.E{Key: "pairing_id", Value: 1}, bson.E{Key: "created_at", Value: 1}, bson.E{Key: "_id", Value: 1}),
		}},
		{"notifications", []mongo.IndexModel{
			index("idx_notifications_user_created", false, bson.E{Key: "user_id", Value: 1}, bson.E{Key: "created_at", Value: -1}),
			index("idx_notifications_read_created", false, bson.E{Key: "read", Value: 1}, bson.E{Key: "created_at", Value: 1}),
		}},
		{"reflections", []mongo.IndexModel{
			index("idx_reflections_pairing_week", false, bson.E{Key: "pairing_id", Value: 1}, bson.E{Key: "week_number", Value: 1}),
		}},
		{"push_subscriptions", []mongo.IndexModel{
			index("uniq_push_subscriptions_endpoint", true, bson.E{Key: "endpoint", Value: 1}),
			index("idx_push_subscriptions_user", false, bson.E{Key: "user_id", Value: 1}),
		}},
	}
}

func index(name string, unique bool, keys ...bson.E) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: bson.D(keys), Options: opts}
}

/*
EnsureAll is called at startup. Each collection is reconciled
independently; problems are aggregated so startup fails with the full
picture rather than the first error.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, s := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(s.collection), s.models, logger); err != nil {
			problems = append(problems, s.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func listExisting(ctx context.Context, coll *mongo.Collection, logger *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Listing fails on a collection that does not exist yet.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			logger.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet creates each desired index. An index with the same keys
// is reused when its name and uniqueness already match; otherwise it is
// dropped and recreated.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel, logger *zap.Logger) error {
	existing := listExisting(ctx, coll, logger)
	var errs []string

	for _, m := range desired {
		name := *m.Options.Name
		unique := boolValue(m.Options.Unique)
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()
		log := logger.With(
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique))

		if ex, ok := existing[sig]; ok {
			if ex.Name == name && boolValue(ex.Unique) == unique {
				log.Debug("reusing existing index")
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop of mismatched index failed", zap.String("existing", ex.Name), zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s: drop %s failed: %v", name, ex.Name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if unique && wafflemongo.IsDup(err) {
				errs = append(errs, fmt.Sprintf("%s: cannot create unique index (duplicates present)", name))
			} else {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			}
			log.Warn("index ensure failed", zap.Error(err))
			continue
		}
		log.Info("index ensured", zap.Duration("took", time.Since(start)))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
