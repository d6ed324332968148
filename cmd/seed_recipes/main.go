package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/pageza/recipe-recommender/backend/config"
	"github.com/pageza/recipe-recommender/backend/internal/database"
	"github.com/pageza/recipe-recommender/backend/internal/loader"
	"github.com/pageza/recipe-recommender/backend/internal/logging"
)

func main() {
	cmd := &cli.Command{
		Name:  "seed_recipes",
		Usage: "Load the Food.com RAW_recipes.csv dataset",
		Description: `Reads recipes from a local file or an s3://bucket/key object and stores
them with their tags and ingredients. Recipe ids follow file order.

  seed_recipes --source ./RAW_recipes.csv
  seed_recipes --source s3://datasets/food.com/RAW_recipes.csv --batch-size 1000`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Usage:   "Path or s3:// URI of the CSV file",
				Sources: cli.EnvVars("RECIPES_SOURCE"),
				Value:   "RAW_recipes.csv",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Recipes written per transaction",
				Value: loader.DefaultBatchSize,
			},
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "Apply migrations before loading",
			},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)

	if cmd.Bool("migrate") {
		if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
			return err
		}
	}

	source := cmd.String("source")
	in, err := openSource(ctx, cfg, source)
	if err != nil {
		return err
	}
	defer in.Close()

	log.Info().Str("source", source).Msg("Loading recipes")
	stats, err := loader.New(db, int(cmd.Int("batch-size"))).Load(ctx, in)
	if err != nil {
		return fmt.Errorf("failed after %d recipes: %w", stats.Recipes, err)
	}

	fmt.Printf("Loaded %d recipes (%d skipped), %d new tags, %d new ingredients\n",
		stats.Recipes, stats.Skipped, stats.Tags, stats.Ingredients)
	return nil
}

// openSource opens a local file, or streams the object for an s3:// URI
func openSource(ctx context.Context, cfg *config.Config, source string) (io.ReadCloser, error) {
	bucket, key, ok, err := config.ParseS3URI(source)
	if err != nil {
		return nil, err
	}
	if !ok {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", source, err)
		}
		return f, nil
	}

	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3cfg.OpenObject(ctx, bucket, key)
}
