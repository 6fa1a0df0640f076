// Package persistence stores change records with GORM.
package persistence

import (
	"fmt"
	"strings"

	"github.com/helixml/patchlog/internal/database"
	"gorm.io/gorm"
)

// AutoMigrate creates or extends the records table and its indexes.
func AutoMigrate(db database.Database) error {
	if err := db.GORM().AutoMigrate(&RecordModel{}); err != nil {
		return fmt.Errorf("migrate records: %w", err)
	}
	return nil
}

// ValidateSchema checks that the records table carries every mapped column
// and index. A database migrated by an older build fails here instead of at
// the first query.
func ValidateSchema(db database.Database) error {
	gdb := db.GORM()
	migrator := gdb.Migrator()
	model := &RecordModel{}

	if !migrator.HasTable(model) {
		return fmt.Errorf("schema validation failed: table %s is missing", model.TableName())
	}

	stmt := &gorm.Statement{DB: gdb}
	if err := stmt.Parse(model); err != nil {
		return fmt.Errorf("parse record schema: %w", err)
	}

	var missing []string
	for _, field := range stmt.Schema.Fields {
		if field.DBName == "" {
			continue
		}
		if !migrator.HasColumn(model, field.DBName) {
			missing = append(missing, "column "+field.DBName)
		}
	}
	for _, idx := range stmt.Schema.ParseIndexes() {
		if !migrator.HasIndex(model, idx.Name) {
			missing = append(missing, "index "+idx.Name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("schema validation failed for %s: missing %s", model.TableName(), strings.Join(missing, ", "))
	}
	return nil
}
