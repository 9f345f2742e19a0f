package main

import (
	"log"

	"coursehub/config"
	"coursehub/internal/infrastructure/repository"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				log.Fatal("DATABASE_URL is required")
			}
			if err := repository.AutoMigrate(openDB(cfg)); err != nil {
				return err
			}
			log.Println("Schema is up to date")
			return nil
		},
	}
}

func openDB(cfg config.Config) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("DB connect failed: %v", err)
	}
	return db
}
