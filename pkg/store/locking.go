package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdateClause returns a SELECT ... FOR UPDATE clause on engines
// that support row locking. SQLite serializes writers on its own, so
// the clause is omitted there.
func forUpdateClause(db *gorm.DB) []clause.Expression {
	if db.Dialector.Name() == "sqlite" {
		return nil
	}
	return []clause.Expression{clause.Locking{Strength: "UPDATE"}}
}
