package access

import "fmt"

// Outcome is the tag of a Decision
type Outcome int

const (
	// Pending is the zero value; Evaluate never returns it.
	Pending Outcome = iota
	Granted
	DeniedRedirect
	DeniedUnauthorized
)

// String returns the outcome name
func (o Outcome) String() string {
	switch o {
	case Granted:
		return "granted"
	case DeniedRedirect:
		return "denied_redirect"
	case DeniedUnauthorized:
		return "denied_unauthorized"
	default:
		return "pending"
	}
}

// Target names where a denied caller should be sent. The core only decides
// the target; acting on it belongs to the caller.
type Target string

const (
	TargetResidentDashboard Target = "resident_dashboard"
	TargetStaffDashboard    Target = "staff_dashboard"
	TargetUnauthorized      Target = "unauthorized"
)

// Reason explains a denial
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonUnresolved         Reason = "permissions_unresolved"
	ReasonMissingCapability  Reason = "capability_missing"
	ReasonResourceOutOfScope Reason = "resource_out_of_scope"
)

// Decision is the tagged result of an access check
type Decision struct {
	Outcome    Outcome
	Target     Target
	Capability Capability
	Reason     Reason
}

// Allowed reports whether the decision is Granted
func (d Decision) Allowed() bool {
	return d.Outcome == Granted
}

// String renders the decision for logs
func (d Decision) String() string {
	if d.Outcome == DeniedRedirect {
		return fmt.Sprintf("%s(%s) %s: %s", d.Outcome, d.Target, d.Capability, d.Reason)
	}
	return fmt.Sprintf("%s %s", d.Outcome, d.Capability)
}

// Requirement is what a gate asks for: a capability and, optionally, the
// resource instance the action targets.
type Requirement struct {
	Capability Capability
	ResourceID string
}

// Require builds a requirement for a blanket capability check
func Require(c Capability) Requirement {
	return Requirement{Capability: c}
}

// On scopes the requirement to a resource instance
func (r Requirement) On(resourceID string) Requirement {
	r.ResourceID = resourceID
	return r
}

// FallbackPolicy chooses the redirect target for a denied, resolved identity.
// The resident marker is consulted before the staff marker.
type FallbackPolicy struct {
	ResidentMarker     Capability
	StaffMarker        Capability
	ResidentTarget     Target
	StaffTarget        Target
	UnauthorizedTarget Target
}

// DefaultFallbackPolicy returns the standard marker and dashboard mapping
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		ResidentMarker:     CapResident,
		StaffMarker:        CapStaff,
		ResidentTarget:     TargetResidentDashboard,
		StaffTarget:        TargetStaffDashboard,
		UnauthorizedTarget: TargetUnauthorized,
	}
}

func (p FallbackPolicy) target(m *PermissionMap) Target {
	switch {
	case p.ResidentMarker != "" && m.Capability(p.ResidentMarker):
		return p.ResidentTarget
	case p.StaffMarker != "" && m.Capability(p.StaffMarker):
		return p.StaffTarget
	default:
		return p.UnauthorizedTarget
	}
}

// Evaluate is the one decision function used by every gate, whether it runs
// before protected content is produced or again after the map is replaced.
//
// A nil map always yields DeniedUnauthorized.
func Evaluate(m *PermissionMap, req Requirement, policy FallbackPolicy) Decision {
	if m == nil {
		return Decision{
			Outcome:    DeniedUnauthorized,
			Target:     policy.UnauthorizedTarget,
			Capability: req.Capability,
			Reason:     ReasonUnresolved,
		}
	}

	if !m.Capability(req.Capability) {
		return Decision{
			Outcome:    DeniedRedirect,
			Target:     policy.target(m),
			Capability: req.Capability,
			Reason:     ReasonMissingCapability,
		}
	}

	if req.ResourceID != "" {
		if v, _ := m.Lookup(req.Capability); v.Scoped() && !m.AllowedResource(req.Capability, req.ResourceID) {
			return Decision{
				Outcome:    DeniedRedirect,
				Target:     policy.target(m),
				Capability: req.Capability,
				Reason:     ReasonResourceOutOfScope,
			}
		}
	}

	return Decision{Outcome: Granted, Capability: req.Capability}
}
