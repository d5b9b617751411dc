// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each collection's set is reconciled
idempotently. We aggregate errors so any problem is visible and startup can
fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	for _, set := range collectionSets() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
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

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	existing := map[string]existingIndex{} // sig -> index
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing, cur.Err()
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		existing = map[string]existingIndex{}
	}

	var errs []string
	for _, m := range models {
		name := *m.Options.Name
		unique := m.Options.Unique
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(unique, ex.Unique) && ex.Name == name {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", name))
				continue
			}
			// Same keys under another name or with other options: drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isDuplicateKeyErr(err) && unique != nil && *unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present on %s)", coll.Name(), name, sig))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", name),
			zap.String("keys", sig),
			zap.Bool("unique", unique != nil && *unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

type indexSet struct {
	collection string
	models     []mongo.IndexModel
}

func index(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

func uniqueIndex(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func collectionSets() []indexSet {
	return []indexSet{
		{"users", []mongo.IndexModel{
			uniqueIndex("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
			index("idx_users_type_created", bson.D{{Key: "user_type", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
		}},
		{"roles", []mongo.IndexModel{
			uniqueIndex("uniq_roles_user_org", bson.D{{Key: "user_id", Value: 1}, {Key: "organization_id", Value: 1}}),
			index("idx_roles_org", bson.D{{Key: "organization_id", Value: 1}, {Key: "approved", Value: 1}}),
		}},
		{"organizations", []mongo.IndexModel{
			uniqueIndex("uniq_organizations_name_ci", bson.D{{Key: "name_ci", Value: 1}}),
		}},
		{"domains", []mongo.IndexModel{
			index("idx_domains_org_status_created", bson.D{{Key: "organization_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}),
			index("idx_domains_org_created", bson.D{{Key: "organization_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
			index("idx_domains_reverse_name", bson.D{{Key: "reverse_name", Value: 1}}),
		}},
		{"vulnerabilities", []mongo.IndexModel{
			index("idx_vulns_domain", bson.D{{Key: "domain_id", Value: 1}}),
			index("idx_vulns_created", bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
			index("idx_vulns_substate", bson.D{{Key: "substate", Value: 1}}),
		}},
		{"audit_events", []mongo.IndexModel{
			index("idx_audit_org_ts", bson.D{{Key: "organization_id", Value: 1}, {Key: "timestamp", Value: -1}}),
			index("idx_audit_actor_ts", bson.D{{Key: "actor_id", Value: 1}, {Key: "timestamp", Value: -1}}),
			index("idx_audit_category_ts", bson.D{{Key: "category", Value: 1}, {Key: "timestamp", Value: -1}}),
		}},
	}
}
