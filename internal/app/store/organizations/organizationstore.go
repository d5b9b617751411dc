// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/normalize"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateOrganization = errors.New("an organization with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("organizations")}
}

func prepare(org *models.Organization) {
	org.Name = normalize.Name(org.Name)
	org.NameCI = text.Fold(org.Name)
	org.RootDomains = normalize.List(org.RootDomains, normalize.Hostname)
	org.IPBlocks = normalize.List(org.IPBlocks, normalize.Name)
}

func (s *Store) Create(ctx context.Context, org models.Organization) (models.Organization, error) {
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	prepare(&org)
	org.CreatedAt = now
	org.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, org)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	return org, nil
}

// GetByID loads an organization. A missing organization is an apperr not-found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Organization{}, apperr.NotFound("organization", id.Hex())
		}
		return models.Organization{}, err
	}
	return org, nil
}

// GetByIDs loads multiple organizations by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Organization, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// Update writes org's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, org models.Organization) (models.Organization, error) {
	prepare(&org)
	org.UpdatedAt = time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, org.ID, bson.M{"$set": bson.M{
		"name":         org.Name,
		"name_ci":      org.NameCI,
		"root_domains": org.RootDomains,
		"ip_blocks":    org.IPBlocks,
		"is_passive":   org.IsPassive,
		"updated_at":   org.UpdatedAt,
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Organization{}, ErrDuplicateOrganization
		}
		return models.Organization{}, err
	}
	if res.MatchedCount == 0 {
		return models.Organization{}, apperr.NotFound("organization", org.ID.Hex())
	}
	return org, nil
}

// Delete removes an organization by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Search runs a scoped organizations query. The count ignores the page window.
func (s *Store) Search(ctx context.Context, q scoping.Query) ([]models.Organization, int64, error) {
	total, err := s.c.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}
