package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// BudgetSortFields contains allowed sort fields for budget events
var BudgetSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"event_name":      true,
	"type":            true,
	"budgeted_amount": true,
	"achieved_amount": true,
	"start_date":      true,
	"end_date":        true,
}

func orderClause(filter string, dir string, allowed map[string]bool, defaultField string) string {
	return ValidateSortField(filter, allowed, defaultField) + " " + ValidateSortOrder(dir)
}
