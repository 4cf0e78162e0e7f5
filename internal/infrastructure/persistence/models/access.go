package models

import (
	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/access"
)

// RoleModel is the persistence model for access.Role
type RoleModel struct {
	CompanyAggregateModel
	Name        string           `gorm:"type:varchar(100);not null"`
	Description string           `gorm:"type:text"`
	Grants      []RoleGrantModel `gorm:"foreignKey:RoleID"`
}

func (RoleModel) TableName() string { return "roles" }

// RoleGrantModel is one grant row. A NULL resource_id is a blanket grant.
type RoleGrantModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	RoleID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Capability string    `gorm:"type:varchar(64);not null"`
	ResourceID *string   `gorm:"type:varchar(64)"`
}

func (RoleGrantModel) TableName() string { return "role_grants" }

// ToDomain converts the model. Grant rows with capabilities this build does
// not know are carried through; BuildPermissionMap drops them.
func (m *RoleModel) ToDomain() *access.Role {
	grants := make([]access.Grant, 0, len(m.Grants))
	for _, g := range m.Grants {
		grant := access.Grant{Capability: access.Capability(g.Capability)}
		if g.ResourceID != nil {
			grant.ResourceID = *g.ResourceID
		}
		grants = append(grants, grant)
	}
	return &access.Role{
		CompanyAggregateRoot: m.CompanyAggregateRoot(),
		Name:                 m.Name,
		Description:          m.Description,
		Grants:               grants,
	}
}

// RoleModelFromDomain converts a domain role, grants included
func RoleModelFromDomain(r *access.Role) *RoleModel {
	m := &RoleModel{Name: r.Name, Description: r.Description}
	m.FromDomainCompanyAggregateRoot(r.CompanyAggregateRoot)
	m.Grants = make([]RoleGrantModel, 0, len(r.Grants))
	for _, g := range r.Grants {
		gm := RoleGrantModel{ID: uuid.New(), RoleID: r.ID, Capability: string(g.Capability)}
		if g.ResourceID != "" {
			id := g.ResourceID
			gm.ResourceID = &id
		}
		m.Grants = append(m.Grants, gm)
	}
	return m
}
