package tenant

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterGuard installs callbacks that fail UPDATE and DELETE statements
// missing a tenant condition. Reads are left alone: lookups such as
// tenant_settings by primary key are legitimately tenant-keyed already.
func RegisterGuard(db *gorm.DB) error {
	if err := db.Callback().Update().Before("gorm:update").Register("tenant:guard_update", guard); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("tenant:guard_delete", guard)
}

func guard(db *gorm.DB) {
	if db.Error != nil || db.Statement.Schema == nil {
		return
	}
	if db.Statement.Schema.LookUpField(Column) == nil {
		return
	}
	if !hasTenantCondition(db.Statement) {
		_ = db.AddError(ErrTenantIDRequired)
	}
}

func hasTenantCondition(stmt *gorm.Statement) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if mentionsTenant(expr) {
			return true
		}
	}
	return false
}

func mentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Expr:
		return strings.Contains(e.SQL, Column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, Column)
	case clause.Eq:
		return columnName(e.Column) == Column
	case clause.IN:
		return columnName(e.Column) == Column
	case clause.AndConditions:
		for _, sub := range e.Exprs {
			if mentionsTenant(sub) {
				return true
			}
		}
	}
	return false
}

func columnName(col any) string {
	switch c := col.(type) {
	case clause.Column:
		return c.Name
	case string:
		return c
	}
	return ""
}
