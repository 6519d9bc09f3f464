package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

type indexSpec struct {
	model any
	name  string
	field string
}

// performanceIndexes are the composite and lookup indexes the list and
// visibility queries rely on beyond the ones declared in struct tags.
var performanceIndexes = []indexSpec{
	{&models.ProjectMember{}, "idx_project_members_user_id", "UserID"},
	{&models.ProjectTask{}, "idx_project_tasks_project_id", "ProjectID"},
	{&models.Project{}, "idx_projects_status", "Status"},
	{&models.Project{}, "idx_projects_created_at", "CreatedAt"},
}

// AddIndexes creates the performance indexes that do not exist yet.
func AddIndexes(db *gorm.DB, log zerolog.Logger) error {
	migrator := db.Migrator()

	for _, idx := range performanceIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.Debug().Str("index", idx.name).Msg("Index already exists, skipping")
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(idx.model); err != nil {
			return fmt.Errorf("failed to parse model for index %s: %w", idx.name, err)
		}
		column := stmt.Schema.LookUpField(idx.field)
		if column == nil {
			return fmt.Errorf("unknown field %s for index %s", idx.field, idx.name)
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, stmt.Schema.Table, column.DBName)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", stmt.Schema.Table).Msg("Created index")
	}

	return nil
}

// MigrateDatabase runs schema migrations followed by index creation.
func MigrateDatabase(db *gorm.DB, log zerolog.Logger) error {
	log.Info().Msg("Running database migrations...")

	if err := Migrate(db); err != nil {
		return err
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info().Msg("Database migrations completed")
	return nil
}
