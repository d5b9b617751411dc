package orgmgmt_test

import (
	"context"
	"strings"

	organizationstore "github.com/dalemusser/crossfeed/internal/app/store/organizations"
	"github.com/dalemusser/crossfeed/internal/app/system/apperr"
	"github.com/dalemusser/crossfeed/internal/app/system/scoping"
	"github.com/dalemusser/crossfeed/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memOrgs struct {
	byID map[primitive.ObjectID]models.Organization
}

func (m *memOrgs) clash(org models.Organization) bool {
	for id, o := range m.byID {
		if id != org.ID && strings.EqualFold(o.Name, org.Name) {
			return true
		}
	}
	return false
}

func (m *memOrgs) Create(_ context.Context, org models.Organization) (models.Organization, error) {
	if m.clash(org) {
		return models.Organization{}, organizationstore.ErrDuplicateOrganization
	}
	org.ID = primitive.NewObjectID()
	m.byID[org.ID] = org
	return org, nil
}

func (m *memOrgs) GetByID(_ context.Context, id primitive.ObjectID) (models.Organization, error) {
	o, ok := m.byID[id]
	if !ok {
		return models.Organization{}, apperr.NotFound("organization", id.Hex())
	}
	return o, nil
}

func (m *memOrgs) Update(_ context.Context, org models.Organization) (models.Organization, error) {
	if _, ok := m.byID[org.ID]; !ok {
		return models.Organization{}, apperr.NotFound("organization", org.ID.Hex())
	}
	if m.clash(org) {
		return models.Organization{}, organizationstore.ErrDuplicateOrganization
	}
	m.byID[org.ID] = org
	return org, nil
}

func (m *memOrgs) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := m.byID[id]; !ok {
		return 0, nil
	}
	delete(m.byID, id)
	return 1, nil
}

// Search honors only the organization id restriction scoping adds.
func (m *memOrgs) Search(_ context.Context, q scoping.Query) ([]models.Organization, int64, error) {
	allowed := map[primitive.ObjectID]bool{}
	for _, id := range q.OrgIDs {
		allowed[id] = true
	}
	out := []models.Organization{}
	for id, o := range m.byID {
		if q.Global || allowed[id] {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

type memRoles struct {
	roles []models.Role
}

func (m *memRoles) GetByID(_ context.Context, id primitive.ObjectID) (models.Role, error) {
	for _, r := range m.roles {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Role{}, apperr.NotFound("role", id.Hex())
}

func (m *memRoles) ListByOrg(_ context.Context, orgID primitive.ObjectID) ([]models.Role, error) {
	out := []models.Role{}
	for _, r := range m.roles {
		if r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRoles) Approve(_ context.Context, id, approver primitive.ObjectID) (models.Role, error) {
	for i, r := range m.roles {
		if r.ID == id {
			m.roles[i].Approved = true
			m.roles[i].ApprovedBy = &approver
			return m.roles[i], nil
		}
	}
	return models.Role{}, apperr.NotFound("role", id.Hex())
}

func (m *memRoles) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	for i, r := range m.roles {
		if r.ID == id {
			m.roles = append(m.roles[:i], m.roles[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *memRoles) DeleteByOrg(_ context.Context, orgID primitive.ObjectID) (int64, error) {
	kept := m.roles[:0]
	var n int64
	for _, r := range m.roles {
		if r.OrganizationID == orgID {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.roles = kept
	return n, nil
}

func (m *memRoles) add(userID, orgID primitive.ObjectID, role string, approved bool) models.Role {
	r := models.Role{ID: primitive.NewObjectID(), UserID: userID, OrganizationID: orgID, Role: role, Approved: approved}
	m.roles = append(m.roles, r)
	return r
}

type domainCounts map[primitive.ObjectID]int64

func (d domainCounts) CountByOrganization(_ context.Context, orgID primitive.ObjectID) (int64, error) {
	return d[orgID], nil
}
