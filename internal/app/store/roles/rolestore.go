// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

var errBadRole = errors.New(`role must be "user" or "admin"`)

// ErrDuplicateRole is returned when a user already has a role in the organization.
var ErrDuplicateRole = errors.New("user already has a role in this organization")

// Create inserts a role after validating the role name.
func (s *Store) Create(ctx context.Context, r models.Role) (models.Role, error) {
	if !models.ValidRole(r.Role) {
		return models.Role{}, errBadRole
	}
	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Role{}, ErrDuplicateRole
		}
		return models.Role{}, err
	}
	return r, nil
}

// Ensure returns the user's role in org, creating one with role and
// approved when none exists. created reports whether a role was inserted.
// An existing role is returned unchanged.
func (s *Store) Ensure(ctx context.Context, userID, orgID primitive.ObjectID, role string, approved bool, createdBy *primitive.ObjectID) (r models.Role, created bool, err error) {
	r, err = s.GetByUserAndOrg(ctx, userID, orgID)
	if err == nil {
		return r, false, nil
	}
	if !apperr.IsNotFound(err) {
		return models.Role{}, false, err
	}
	r, err = s.Create(ctx, models.Role{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Approved:       approved,
		CreatedBy:      createdBy,
	})
	if errors.Is(err, ErrDuplicateRole) {
		// Lost a race with a concurrent insert.
		r, err = s.GetByUserAndOrg(ctx, userID, orgID)
		return r, false, err
	}
	return r, err == nil, err
}

// GetByID loads a role. A missing role is an apperr not-found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	return s.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

// GetByUserAndOrg loads the role linking userID to orgID.
func (s *Store) GetByUserAndOrg(ctx context.Context, userID, orgID primitive.ObjectID) (models.Role, error) {
	return s.findOne(ctx, bson.M{"user_id": userID, "organization_id": orgID}, userID.Hex()+"/"+orgID.Hex())
}

func (s *Store) findOne(ctx context.Context, filter bson.M, key string) (models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, filter).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Role{}, apperr.NotFound("role", key)
		}
		return models.Role{}, err
	}
	return r, nil
}

// ListByUser returns every role held by userID, oldest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Role, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// ListByUsers returns the roles for several users keyed by user id.
func (s *Store) ListByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]models.Role, error) {
	result := make(map[primitive.ObjectID][]models.Role, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	roles, err := s.find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	for _, r := range roles {
		result[r.UserID] = append(result[r.UserID], r)
	}
	return result, nil
}

// ListByOrg returns every role in orgID, oldest first.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Role, error) {
	return s.find(ctx, bson.M{"organization_id": orgID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Role, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	roles := []models.Role{}
	if err := cur.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// Approve marks a role approved by approver. Approving an approved role is
// a no-op that still returns the role.
func (s *Store) Approve(ctx context.Context, id, approver primitive.ObjectID) (models.Role, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r models.Role
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"approved":    true,
		"approved_by": approver,
		"updated_at":  time.Now().UTC(),
	}}, opts).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Role{}, apperr.NotFound("role", id.Hex())
		}
		return models.Role{}, err
	}
	return r, nil
}

// SetRole changes the role name on an existing role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if !models.ValidRole(role) {
		return errBadRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"role": role, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("role", id.Hex())
	}
	return nil
}

// Delete removes a role by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByUser removes all roles for a user.
// Returns the number of documents deleted.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByOrg removes all roles for an organization.
// Returns the number of documents deleted.
func (s *Store) DeleteByOrg(ctx context.Context, orgID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"organization_id": orgID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
