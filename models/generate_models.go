package models

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

/*
Schema tooling, driven from main:

  GENERATE_MODELS=true         migrate every table below and write typed query helpers to ./generated
  GENERATE_COLUMN_REPORT=true  only print the columns the database has that no model field maps to

Report example:

	--- Table: projects ---
	Found 1 columns not accounted for in model:
	  - featured_apps
*/

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{&Project{}, &Comment{}, &ContactMessage{}}
}

// Migrate creates or alters the tables of every persisted model.
func Migrate(db *gorm.DB) error {
	return db.Session(&gorm.Session{SkipDefaultTransaction: true}).AutoMigrate(All()...)
}

func GenerateModels(db *gorm.DB) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	db = db.Session(&gorm.Session{
		Logger:                 logger.Default.LogMode(logger.Info),
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(Project{}, Comment{}, ContactMessage{})

	log.Info().Msg("Migrating models...")
	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	log.Info().Msg("Database migration completed")

	GenerateColumnMismatchReport(db)

	g.Execute()
	log.Info().Msg("Model generation complete")
	return nil
}

// GenerateColumnMismatchReport logs database columns that no model field maps to.
func GenerateColumnMismatchReport(db *gorm.DB) int {
	modelMappings := map[string]interface{}{
		"projects":         Project{},
		"comments":         Comment{},
		"contact_messages": ContactMessage{},
	}

	tables := make([]string, 0, len(modelMappings))
	for name := range modelMappings {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	totalMismatches := 0
	for _, tableName := range tables {
		dbColumns, err := getTableColumns(db, tableName)
		if err != nil {
			log.Warn().Err(err).Str("table", tableName).Msg("Skipping table")
			continue
		}

		mismatches := findColumnMismatches(dbColumns, ModelColumns(db, modelMappings[tableName]))
		if len(mismatches) > 0 {
			log.Warn().Str("table", tableName).Strs("columns", mismatches).Msg("Columns not accounted for in model")
			totalMismatches += len(mismatches)
		} else {
			log.Info().Str("table", tableName).Msg("All columns are accounted for in the model")
		}
	}

	log.Info().Int("total", totalMismatches).Msg("Column mismatch report finished")
	return totalMismatches
}

func getTableColumns(db *gorm.DB, tableName string) ([]string, error) {
	var columns []string
	query := `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = ?
		AND table_schema = CURRENT_SCHEMA()
		ORDER BY ordinal_position
	`
	if err := db.Raw(query, tableName).Scan(&columns).Error; err != nil {
		return nil, fmt.Errorf("error querying columns for table %s: %w", tableName, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", tableName)
	}
	return columns, nil
}

// ModelColumns resolves the column names gorm maps for model, including embedded structs.
func ModelColumns(db *gorm.DB, model interface{}) []string {
	return modelColumns(db.NamingStrategy, reflect.TypeOf(model), "")
}

func modelColumns(namer schema.Namer, t reflect.Type, prefix string) []string {
	var fields []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		gormTag := field.Tag.Get("gorm")
		if gormTag == "-" || strings.Contains(gormTag, "foreignKey:") {
			continue
		}

		if strings.Contains(gormTag, "embedded") {
			fields = append(fields, modelColumns(namer, field.Type, prefix+tagValue(gormTag, "embeddedPrefix"))...)
			continue
		}

		column := tagValue(gormTag, "column")
		if column == "" {
			column = namer.ColumnName("", field.Name)
		}
		fields = append(fields, prefix+column)
	}
	return fields
}

// tagValue extracts key:value from a GORM tag
func tagValue(gormTag, key string) string {
	for _, part := range strings.Split(gormTag, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, key+":") {
			return strings.TrimPrefix(part, key+":")
		}
	}
	return ""
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool)
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	return mismatches
}
