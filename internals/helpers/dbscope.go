// file: internals/helpers/dbscope.go
package helper

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate menambahkan SELECT ... FOR UPDATE.
// SQLite (dipakai di unit test) tidak mengenal FOR UPDATE dan single-writer,
// jadi clause hanya dipasang di postgres.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
