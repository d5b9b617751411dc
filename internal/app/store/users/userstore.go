// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/normalize"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadUserType    = errors.New(`userType must be "standard"|"globalView"|"globalAdmin"`)
)

// GetByID loads a user by ObjectID. A missing user is an apperr not-found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.NotFound("user", id.Hex())
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByIDs loads users by id. Missing ids are absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByEmail looks up a user by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, apperr.NotFound("user", email)
		}
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a new user after normalizing fields. An empty UserType
// defaults to standard.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.FullName = normalize.Name(u.FirstName + " " + u.LastName)
	if u.UserType == "" {
		u.UserType = models.UserTypeStandard
	}
	if !u.UserType.Valid() {
		return models.User{}, errBadUserType
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	u.Roles = []models.Role{}
	return u, nil
}

// Update writes u's mutable fields. The full name is rebuilt from the
// first and last names.
func (s *Store) Update(ctx context.Context, u models.User) (models.User, error) {
	if !u.UserType.Valid() {
		return models.User{}, errBadUserType
	}
	u.Email = normalize.Email(u.Email)
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.FullName = normalize.Name(u.FirstName + " " + u.LastName)
	u.UpdatedAt = time.Now().UTC()

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": u.ID}, bson.M{"$set": bson.M{
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"full_name":  u.FullName,
		"user_type":  u.UserType,
		"updated_at": u.UpdatedAt,
	}})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	if res.MatchedCount == 0 {
		return models.User{}, apperr.NotFound("user", u.ID.Hex())
	}
	return u, nil
}

// Delete removes a user by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Search runs a scoped users query. The count ignores the page window.
func (s *Store) Search(ctx context.Context, q scoping.Query) ([]models.User, int64, error) {
	total, err := s.c.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, q.Filter, q.FindOptions())
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
