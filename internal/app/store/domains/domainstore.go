// internal/app/store/domains/domainstore.go
package domainstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("domains")}
}

// GetByID loads a domain. A missing domain is an apperr not-found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Domain, error) {
	var d models.Domain
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Domain{}, apperr.NotFound("domain", id.Hex())
		}
		return models.Domain{}, err
	}
	return d, nil
}

// GetByIDs loads the domains that exist among ids. Missing ids are simply
// absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Domain, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var domains []models.Domain
	if err := cur.All(ctx, &domains); err != nil {
		return nil, err
	}
	return domains, nil
}

// SetStatus moves the pending domains among ids to status in one
// UpdateMany. Domains that were already reviewed are left untouched.
// Returns the number of documents modified.
func (s *Store) SetStatus(ctx context.Context, ids []primitive.ObjectID, status models.DomainStatus, reviewer primitive.ObjectID, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.DomainPending},
		bson.M{"$set": bson.M{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// CountByOrganization returns the number of domains owned by orgID.
func (s *Store) CountByOrganization(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"organization_id": orgID})
}

// Search runs a scoped domains query. The count ignores the page window.
func (s *Store) Search(ctx context.Context, q scoping.Query) ([]models.Domain, int64, error) {
	total, err := s.c.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var domains []models.Domain
	if err := cur.All(ctx, &domains); err != nil {
		return nil, 0, err
	}
	return domains, total, nil
}
