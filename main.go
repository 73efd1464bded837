package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/api"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/config"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/seed"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run() error {
	if err := config.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}
	c := config.New()
	setupLogging(config.GetString(c, "LOG_LEVEL", "info"))

	connStr, err := connectionString(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	currentDB, err := database.Open(openCtx, connStr,
		database.WithMongoDatabase(config.GetString(c, "MONGO_DATABASE", "")),
		database.WithMongoCollection(config.GetString(c, "MONGO_COLLECTION", "")),
		database.WithGormLogLevel(config.GetString(c, "GORM_LOG_LEVEL", "warn")),
	)
	cancel()
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := currentDB.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("closing database")
		}
	}()

	if done, err := runModelTooling(c, currentDB); done || err != nil {
		return err
	}

	if n := config.GetInt(c, "SEED_COUNT", 0); n > 0 {
		if _, err := seed.Seed(ctx, currentDB.BlogPostRepo(), n); err != nil {
			return err
		}
	}

	server := api.NewServer(currentDB, c)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msgf("Closing server: %v", context.Cause(gctx))
		return server.ShutdownGracefully(30 * time.Second)
	})
	return g.Wait()
}

// connectionString resolves DATABASE_URL, or builds one from DB_TYPE
func connectionString(c map[string]string) (string, error) {
	if url := config.GetString(c, "DATABASE_URL", ""); url != "" {
		return url, nil
	}

	dbType := strings.ToLower(config.GetString(c, "DB_TYPE", "mongo"))
	log.Info().Str("dbType", dbType).Msg("selecting database")
	switch dbType {
	case "mongo":
		return config.GetString(c, "MONGO_URL", "mongodb://localhost:27017/blog-app"), nil
	case "supa":
		return database.SupabaseDSN(
			config.GetString(c, "SUPABASE_DB_HOST", ""),
			config.GetString(c, "SUPABASE_DB_USER", ""),
			config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(c, "SUPABASE_DB_NAME", ""),
			config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		), nil
	case "postgres":
		return config.GetString(c, "POSTGRES_URL", "postgres://localhost:5432/blog-app?sslmode=disable"), nil
	case "memory":
		return "memory://", nil
	default:
		return "", fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

// runModelTooling handles the one-shot gorm modes. done reports whether the process should exit.
func runModelTooling(c map[string]string, currentDB database.Database) (done bool, err error) {
	generate := config.GetBool(c, "GENERATE_MODELS", false)
	report := config.GetBool(c, "GENERATE_COLUMN_REPORT", false)
	if !generate && !report {
		return false, nil
	}

	repo, ok := currentDB.BlogPostRepo().(*database.BlogPostRepo)
	if !ok {
		return true, fmt.Errorf("model generation needs the postgres backend")
	}
	if generate {
		fmt.Println("Generating models and query helpers...")
		return true, models.GenerateModels(repo.GetDB())
	}
	fmt.Println("Generating column mismatch report...")
	_, err = models.GenerateColumnMismatchReport(repo.GetDB())
	return true, err
}

func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
}
