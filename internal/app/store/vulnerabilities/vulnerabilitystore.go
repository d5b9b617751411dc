// internal/app/store/vulnerabilities/vulnerabilitystore.go
package vulnerabilitystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("vulnerabilities")}
}

// GetByID loads a vulnerability without its domain reference. A missing
// vulnerability is an apperr not-found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Vulnerability, error) {
	var v models.Vulnerability
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Vulnerability{}, apperr.NotFound("vulnerability", id.Hex())
		}
		return models.Vulnerability{}, err
	}
	return v, nil
}

// SubstateChange is one accepted substate write. Action is appended to the
// history when non-nil.
type SubstateChange struct {
	Substate models.Substate
	State    models.VulnState
	At       time.Time
	Action   *models.VulnerabilityAction
}

// SetSubstate writes a substate, its state, and the update time.
func (s *Store) SetSubstate(ctx context.Context, id primitive.ObjectID, ch SubstateChange) error {
	update := bson.M{"$set": bson.M{
		"substate":   ch.Substate,
		"state":      ch.State,
		"updated_at": ch.At,
	}}
	if ch.Action != nil {
		update["$push"] = bson.M{"actions": ch.Action}
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("vulnerability", id.Hex())
	}
	return nil
}

// withDomain joins each finding to its domain so the organization filter
// can be applied to domain.organization_id. Findings whose domain is gone
// drop out.
var withDomain = []bson.D{
	{{Key: "$lookup", Value: bson.M{
		"from":         "domains",
		"localField":   "domain_id",
		"foreignField": "_id",
		"as":           "domain",
	}}},
	{{Key: "$unwind", Value: "$domain"}},
	{{Key: "$set", Value: bson.M{"domain": bson.M{
		"_id":             "$domain._id",
		"name":            "$domain.name",
		"organization_id": "$domain.organization_id",
	}}}},
}

// matchStages splits filter around the domain join. Conditions on the
// finding's own fields run first so they can use its indexes; conditions on
// the joined domain (and any operator keys) run after the join.
func matchStages(filter bson.M) []bson.D {
	own, joined := bson.M{}, bson.M{}
	for k, v := range filter {
		if strings.HasPrefix(k, "domain.") || strings.HasPrefix(k, "$") {
			joined[k] = v
		} else {
			own[k] = v
		}
	}

	stages := make([]bson.D, 0, len(withDomain)+2)
	if len(own) > 0 {
		stages = append(stages, bson.D{{Key: "$match", Value: own}})
	}
	stages = append(stages, withDomain...)
	if len(joined) > 0 {
		stages = append(stages, bson.D{{Key: "$match", Value: joined}})
	}
	return stages
}

// Search runs a scoped vulnerabilities query. The count ignores the page
// window. Bounded pages come back in one $facet round trip; unbounded
// exports stream rows from their own pipeline so no single result document
// has to hold every finding.
func (s *Store) Search(ctx context.Context, q scoping.Query) ([]models.Vulnerability, int64, error) {
	if q.Window.Unbounded() {
		return s.searchAll(ctx, q)
	}

	pipeline := append(matchStages(q.Filter), bson.D{{Key: "$facet", Value: bson.M{
		"rows":  q.PageStages(),
		"total": []bson.D{{{Key: "$count", Value: "n"}}},
	}}})

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		Rows  []models.Vulnerability `bson:"rows"`
		Total []struct {
			N int64 `bson:"n"`
		} `bson:"total"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	if len(out) == 0 {
		return nil, 0, nil
	}
	var total int64
	if len(out[0].Total) > 0 {
		total = out[0].Total[0].N
	}
	return out[0].Rows, total, nil
}

func (s *Store) searchAll(ctx context.Context, q scoping.Query) ([]models.Vulnerability, int64, error) {
	total, err := s.count(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}

	pipeline := append(matchStages(q.Filter), q.PageStages()...)
	cur, err := s.c.Aggregate(ctx, pipeline, options.Aggregate().SetAllowDiskUse(true))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	rows := make([]models.Vulnerability, 0, total)
	for cur.Next(ctx) {
		var v models.Vulnerability
		if err := cur.Decode(&v); err != nil {
			return nil, 0, err
		}
		rows = append(rows, v)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (s *Store) count(ctx context.Context, filter bson.M) (int64, error) {
	pipeline := append(matchStages(filter), bson.D{{Key: "$count", Value: "n"}})
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var out []struct {
		N int64 `bson:"n"`
	}
	if err := cur.All(ctx, &out); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, nil
	}
	return out[0].N, nil
}
