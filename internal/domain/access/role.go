package access

import (
	"strings"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
)

// Grant assigns a capability to a role. An empty ResourceID is a blanket
// grant; otherwise the capability is scoped to that resource.
type Grant struct {
	Capability Capability
	ResourceID string
}

// Role is a named set of grants within a company
type Role struct {
	shared.CompanyAggregateRoot
	Name        string
	Description string
	Grants      []Grant
}

// NewRole creates a role with no grants
func NewRole(companyID uuid.UUID, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError(shared.FieldError{Field: "name", Message: "name is required"})
	}
	if len(name) > 100 {
		return nil, shared.NewValidationError(shared.FieldError{Field: "name", Message: "name cannot exceed 100 characters"})
	}
	return &Role{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Name:                 name,
		Description:          description,
	}, nil
}

// ReplaceGrants swaps the whole grant set. Unknown capabilities are rejected
// with a field error per offending entry and nothing is changed.
func (r *Role) ReplaceGrants(grants []Grant) error {
	verr := shared.NewValidationError()
	seen := make(map[Grant]struct{}, len(grants))
	cleaned := make([]Grant, 0, len(grants))
	for _, g := range grants {
		if !g.Capability.IsKnown() {
			verr.Add("grants", "unknown capability: "+string(g.Capability))
			continue
		}
		g.ResourceID = strings.TrimSpace(g.ResourceID)
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		cleaned = append(cleaned, g)
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	r.Grants = cleaned
	r.IncrementVersion()
	r.AddDomainEvent(NewGrantsChangedEvent(r.ID, r.CompanyID))
	return nil
}

// BuildPermissionMap resolves the union of the given grants into a snapshot.
// A blanket grant for a capability overrides any scoped grants of the same capability.
func BuildPermissionMap(grants []Grant) *PermissionMap {
	blanket := make(map[Capability]bool)
	scoped := make(map[Capability][]string)
	for _, g := range grants {
		if g.ResourceID == "" {
			blanket[g.Capability] = true
			continue
		}
		scoped[g.Capability] = append(scoped[g.Capability], g.ResourceID)
	}

	values := make(map[Capability]Value, len(blanket)+len(scoped))
	for c, ids := range scoped {
		values[c] = Resources(dedupe(ids)...)
	}
	for c := range blanket {
		values[c] = Flag(true)
	}
	return NewPermissionMap(values)
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
