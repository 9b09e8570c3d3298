package main

import (
	"fmt"

	"github.com/Estebaan93/RunnConnectAPI/config"
	"github.com/Estebaan93/RunnConnectAPI/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema of the configured store",
	Long: `Applies the Postgres migrations when STORE=postgres, or creates the
DynamoDB table and its indexes when STORE=dynamo. Running it again is a no-op.`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	switch cfg.Store {
	case config.STORE_POSTGRES:
		version, err := postgres.RunMigrations(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("Postgres schema is up to date", "version", version)
	case config.STORE_DYNAMO:
		db, err := newDynamoDB(cmd.Context())
		if err != nil {
			return err
		}
		if err := db.CreateTable(cmd.Context()); err != nil {
			return err
		}
		logger.Info("DynamoDB table is ready", "table", cfg.DynamoTableName)
	default:
		return fmt.Errorf("store %q has no schema to migrate", cfg.Store)
	}
	return nil
}
