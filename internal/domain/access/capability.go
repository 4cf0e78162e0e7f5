// Package access holds the authorization model of the console: the closed set of
// capabilities, immutable permission snapshots, and the single decision function
// shared by every gate.
package access

import "sort"

// Capability is a known capability key. The set is closed: keys that are not
// listed here are never granted.
type Capability string

const (
	CapSuperAdmin Capability = "isSuperAdmin"
	CapCompany    Capability = "isCompany"
	CapStaff      Capability = "isStaff"
	CapResident   Capability = "isUser"

	CapBilling    Capability = "hasBillingPermission"
	CapCamera     Capability = "hasCameraPermission"
	CapComplaint  Capability = "hasComplaintPermission"
	CapNotice     Capability = "hasNoticePermission"
	CapEvent      Capability = "hasEventPermission"
	CapApartment  Capability = "hasApartmentPermission"
	CapListing    Capability = "hasListingPermission"
	CapVisitorLog Capability = "hasVisitorPermission"
)

var knownCapabilities = map[Capability]struct{}{
	CapSuperAdmin: {},
	CapCompany:    {},
	CapStaff:      {},
	CapResident:   {},
	CapBilling:    {},
	CapCamera:     {},
	CapComplaint:  {},
	CapNotice:     {},
	CapEvent:      {},
	CapApartment:  {},
	CapListing:    {},
	CapVisitorLog: {},
}

// ParseCapability converts a raw key into a Capability.
// The second return value is false for unknown keys.
func ParseCapability(key string) (Capability, bool) {
	c := Capability(key)
	_, ok := knownCapabilities[c]
	return c, ok
}

// IsKnown reports whether c belongs to the closed capability set
func (c Capability) IsKnown() bool {
	_, ok := knownCapabilities[c]
	return ok
}

// String returns the wire key of the capability
func (c Capability) String() string {
	return string(c)
}

// AllCapabilities returns every known capability in a stable order
func AllCapabilities() []Capability {
	caps := make([]Capability, 0, len(knownCapabilities))
	for c := range knownCapabilities {
		caps = append(caps, c)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
