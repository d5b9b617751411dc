// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/crossfeed/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	// helper: ensure collection exists (with truthful logging) and then validator (if provided)
	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			// DocumentDB or other deployments may not support collMod/validators.
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Accounts and memberships
	ensure("users", usersSchema())
	ensure("roles", rolesSchema())
	ensure("organizations", orgsSchema())

	// Discovered assets and findings
	ensure("domains", domainsSchema())
	ensure("vulnerabilities", vulnerabilitiesSchema())

	// Audit events are append-only and written by one path; no validator.
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enumOf[T ~string](vals ...T) bson.A {
	out := make(bson.A, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "user_type"},
			"properties": bson.M{
				"email":      bson.M{"bsonType": "string", "pattern": "^[^@\\s]+@[^@\\s]+$"},
				"first_name": bson.M{"bsonType": "string"},
				"last_name":  bson.M{"bsonType": "string"},
				"full_name":  bson.M{"bsonType": "string"},
				"user_type":  bson.M{"enum": enumOf(models.UserTypeStandard, models.UserTypeGlobalView, models.UserTypeGlobalAdmin)},
			},
		},
	}
}

func rolesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "organization_id", "role", "approved"},
			"properties": bson.M{
				"user_id":         bson.M{"bsonType": "objectId"},
				"organization_id": bson.M{"bsonType": "objectId"},
				"role":            bson.M{"enum": enumOf(models.RoleUser, models.RoleAdmin)},
				"approved":        bson.M{"bsonType": "bool"},
				"created_by":      bson.M{"bsonType": "objectId"},
				"approved_by":     bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func orgsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":         nonBlank,
				"name_ci":      nonBlank,
				"root_domains": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"ip_blocks":    bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"is_passive":   bson.M{"bsonType": "bool"},
			},
		},
	}
}

func domainsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"organization_id", "name", "status"},
			"properties": bson.M{
				"organization_id": bson.M{"bsonType": "objectId"},
				"name":            nonBlank,
				"reverse_name":    bson.M{"bsonType": "string"},
				"status":          bson.M{"enum": enumOf(models.DomainPending, models.DomainApproved, models.DomainDisavowed)},
				"reviewed_by":     bson.M{"bsonType": "objectId"},
				"reviewed_at":     bson.M{"bsonType": "date"},
			},
		},
	}
}

// vulnerabilitiesSchema pins state to the group its substate belongs to.
func vulnerabilitiesSchema() bson.M {
	var open, closed []models.Substate
	for _, sub := range models.Substates {
		if st, _ := models.StateFor(sub); st == models.StateOpen {
			open = append(open, sub)
		} else {
			closed = append(closed, sub)
		}
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"domain_id", "title", "state", "substate"},
			"properties": bson.M{
				"domain_id": bson.M{"bsonType": "objectId"},
				"title":     nonBlank,
				"severity": bson.M{"enum": bson.A{
					models.SeverityNone, models.SeverityLow, models.SeverityMedium,
					models.SeverityHigh, models.SeverityCritical,
				}},
				"actions": bson.M{"bsonType": "array"},
			},
			"oneOf": bson.A{
				bson.M{"properties": bson.M{
					"state":    bson.M{"enum": enumOf(models.StateOpen)},
					"substate": bson.M{"enum": enumOf(open...)},
				}},
				bson.M{"properties": bson.M{
					"state":    bson.M{"enum": enumOf(models.StateClosed)},
					"substate": bson.M{"enum": enumOf(closed...)},
				}},
			},
		},
	}
}
