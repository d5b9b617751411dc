package usermgmt_test

import (
	"context"
	"errors"
	"strings"
	"time"

	userstore "github.com/dalemusser/crossfeed/internal/app/store/users"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memUsers struct {
	byID map[primitive.ObjectID]models.User
}

func (m *memUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, apperr.NotFound("user", id.Hex())
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u models.User) (models.User, error) {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return models.User{}, userstore.ErrDuplicateEmail
		}
	}
	if u.UserType == "" {
		u.UserType = models.UserTypeStandard
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) Update(_ context.Context, u models.User) (models.User, error) {
	if _, ok := m.byID[u.ID]; !ok {
		return models.User{}, apperr.NotFound("user", u.ID.Hex())
	}
	u.UpdatedAt = time.Now().UTC()
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := m.byID[id]; !ok {
		return 0, nil
	}
	delete(m.byID, id)
	return 1, nil
}

// Search ignores filters and paging; the scoping package tests those.
func (m *memUsers) Search(_ context.Context, _ scoping.Query) ([]models.User, int64, error) {
	out := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

type memRoles struct {
	roles []models.Role
	// failOn names a write method that returns errWrite.
	failOn string
}

var errWrite = errors.New("role write failed")

func (m *memRoles) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Role, error) {
	out := []models.Role{}
	for _, r := range m.roles {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRoles) ListByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID][]models.Role, error) {
	out := map[primitive.ObjectID][]models.Role{}
	for _, id := range userIDs {
		out[id], _ = m.ListByUser(ctx, id)
	}
	return out, nil
}

func (m *memRoles) Ensure(_ context.Context, userID, orgID primitive.ObjectID, role string, approved bool, createdBy *primitive.ObjectID) (models.Role, bool, error) {
	if m.failOn == "Ensure" {
		return models.Role{}, false, errWrite
	}
	for _, r := range m.roles {
		if r.UserID == userID && r.OrganizationID == orgID {
			return r, false, nil
		}
	}
	r := models.Role{
		ID:             primitive.NewObjectID(),
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		Approved:       approved,
		CreatedBy:      createdBy,
	}
	m.roles = append(m.roles, r)
	return r, true, nil
}

func (m *memRoles) Approve(_ context.Context, id, approver primitive.ObjectID) (models.Role, error) {
	if m.failOn == "Approve" {
		return models.Role{}, errWrite
	}
	for i, r := range m.roles {
		if r.ID == id {
			m.roles[i].Approved = true
			m.roles[i].ApprovedBy = &approver
			return m.roles[i], nil
		}
	}
	return models.Role{}, apperr.NotFound("role", id.Hex())
}

func (m *memRoles) SetRole(_ context.Context, id primitive.ObjectID, role string) error {
	if m.failOn == "SetRole" {
		return errWrite
	}
	for i, r := range m.roles {
		if r.ID == id {
			m.roles[i].Role = role
			return nil
		}
	}
	return apperr.NotFound("role", id.Hex())
}

func (m *memRoles) DeleteByUser(_ context.Context, userID primitive.ObjectID) (int64, error) {
	kept := m.roles[:0]
	var n int64
	for _, r := range m.roles {
		if r.UserID == userID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.roles = kept
	return n, nil
}

type memOrgs map[primitive.ObjectID]models.Organization

func (m memOrgs) GetByID(_ context.Context, id primitive.ObjectID) (models.Organization, error) {
	o, ok := m[id]
	if !ok {
		return models.Organization{}, apperr.NotFound("organization", id.Hex())
	}
	return o, nil
}
