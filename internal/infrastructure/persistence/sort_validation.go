package persistence

import (
	"fmt"
	"strings"

	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted and defaultField otherwise.
// Sort columns are interpolated into SQL, so nothing else may pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// StockMovementSortFields are the sortable stock movement columns
var StockMovementSortFields = map[string]bool{
	"created_at":     true,
	"quantity":       true,
	"quantity_after": true,
}

// LedgerEntrySortFields are the sortable ledger entry columns
var LedgerEntrySortFields = map[string]bool{
	"created_at": true,
	"issue_date": true,
	"due_date":   true,
	"amount":     true,
	"status":     true,
}

// CustomerTransactionSortFields are the sortable customer transaction columns
var CustomerTransactionSortFields = map[string]bool{
	"created_at": true,
	"date":       true,
	"amount":     true,
}

// paginate applies a whitelisted ORDER BY plus offset and limit. The id
// tiebreaker keeps pages stable when timestamps collide.
func paginate(filter shared.Filter, allowed map[string]bool, defaultField string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		field := ValidateSortField(filter.OrderBy, allowed, defaultField)
		dir := ValidateSortOrder(filter.OrderDir)
		return db.
			Order(fmt.Sprintf("%s %s, id %s", field, dir, dir)).
			Offset(filter.Offset()).
			Limit(filter.Limit())
	}
}
