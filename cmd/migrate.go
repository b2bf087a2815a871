package cmd

import (
	"fmt"

	"content-importer/core/database"
	"content-importer/feature/importer/models"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// migrateCmd creates or extends the content tables.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the content tables",
	Long: `Migrate runs gorm AutoMigrate for every content table and then verifies that
each table exposes the columns the importer writes. Existing columns and data
are never dropped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer l.Sync()

		db, err := database.Connect(cfg.Database)
		if err != nil {
			return err
		}

		l.Info("Migrating content tables", zap.String("driver", cfg.Database.Driver))
		if err := db.WithContext(cmd.Context()).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}

		if err := verifyColumns(db); err != nil {
			return err
		}
		l.Info("Content tables are up to date", zap.Int("tables", len(models.All())))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}

// verifyColumns checks every model's table against its parsed gorm schema.
func verifyColumns(db *gorm.DB) error {
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse model %T: %w", model, err)
		}

		missing, err := database.MissingColumns(db, stmt.Schema.Table, stmt.Schema.DBNames)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", stmt.Schema.Table, err)
		}
		if len(missing) > 0 {
			return fmt.Errorf("table %s is missing columns %v", stmt.Schema.Table, missing)
		}
	}
	return nil
}
