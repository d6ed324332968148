package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/pageza/recipe-recommender/backend/config"
	"github.com/pageza/recipe-recommender/backend/internal/database"
	"github.com/pageza/recipe-recommender/backend/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "migrate",
		Usage: "Apply or roll back database migrations",
		Description: `Applies every pending migrations/*.sql file in name order and records it
in the migrations table. With --rollback the matching *_rollback.sql of the
most recently applied migration is executed instead.

sqlite databases are migrated from the gorm models.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Directory holding the migration files",
				Sources: cli.EnvVars("MIGRATIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the last applied migration",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}

func run(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	dir := cmd.String("dir")
	if dir == "" {
		dir = cfg.MigrationsDir
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if cmd.Bool("rollback") {
		name, err := database.RollbackLast(db, dir)
		if err != nil {
			return err
		}
		log.Info().Str("migration", name).Msg("Successfully rolled back migration")
		return nil
	}

	if err := database.RunMigrations(db, dir); err != nil {
		return err
	}
	log.Info().Str("dir", dir).Msg("All migrations applied successfully")
	return nil
}
