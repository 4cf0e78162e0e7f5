package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, else defaultField
func ValidateSortField(sortField string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowed[trimmed] {
		return trimmed
	}
	return defaultField
}

// ApartmentSortFields is the whitelist for apartment listings
var ApartmentSortFields = map[string]bool{
	"created_at": true,
	"number":     true,
	"tower":      true,
	"floor":      true,
}
