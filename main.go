package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	api "github.com/saqr-syn/portfolio-backend/api"
	"github.com/saqr-syn/portfolio-backend/config"
	"github.com/saqr-syn/portfolio-backend/database"
	"github.com/saqr-syn/portfolio-backend/models"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	setupLogging(c)
	log.Info().Msg("Initializing app...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.LoadSSM(ctx, c)

	dbType := config.GetString(c, "DB_TYPE", "")
	log.Info().Str("dbType", dbType).Msg("selecting store")

	var currentDB database.Database
	switch dbType {
	case "memory":
		memDB, err := database.NewMemory()
		if err != nil {
			log.Fatal().Err(err).Msg("Error creating in-memory store")
		}
		currentDB = memDB
	case "supa", "postgres":
		db, err := openPostgres(c, dbType)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}

		// If generating models, run generation and exit
		if config.GetBool(c, "GENERATE_MODELS", false) {
			log.Info().Msg("Generating models and query helpers...")
			if err := models.GenerateModels(db); err != nil {
				log.Fatal().Err(err).Msg("model generation failed")
			}
			return
		}

		// If generating column mismatch report, run report and exit
		if config.GetBool(c, "GENERATE_COLUMN_REPORT", false) {
			log.Info().Msg("Generating column mismatch report...")
			if n := models.GenerateColumnMismatchReport(db); n > 0 {
				os.Exit(1)
			}
			return
		}

		if err := models.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Error migrating schema")
		}
		currentDB = database.New(db)
	default:
		log.Fatal().Str("dbType", dbType).Msg("Unsupported DB_TYPE, expected supa, postgres or memory")
	}

	server, err := api.NewServer(ctx, currentDB, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		// Wait for SIGINT/SIGTERM or a failed listener, then drain.
		<-gctx.Done()
		server.ShutdownGracefully(30 * time.Second)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Closing server")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

func setupLogging(c map[string]string) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.GetString(c, "LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if config.GetString(c, "LOG_FORMAT", "json") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// openPostgres connects to Supabase or a plain DATABASE_URL and registers the optional read replica.
func openPostgres(c map[string]string, dbType string) (*gorm.DB, error) {
	var connStr string
	switch dbType {
	case "supa":
		connStr = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
			config.GetString(c, "SUPABASE_DB_HOST", ""),
			config.GetString(c, "SUPABASE_DB_USER", ""),
			config.GetString(c, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(c, "SUPABASE_DB_NAME", ""),
			config.GetString(c, "SUPABASE_DB_PORT", "5432"),
		)
		log.Info().Msg("Connecting to Supabase database...")
	default:
		connStr = config.GetString(c, "DATABASE_URL", "")
		if connStr == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for DB_TYPE=postgres")
		}
		log.Info().Msg("Connecting to Postgres database...")
	}

	newLogger := logger.New(
		stdlog.New(log.Logger, "", 0),
		logger.Config{
			SlowThreshold:             time.Duration(config.GetInt(c, "DB_SLOW_THRESHOLD_MS", 2000)) * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
		Logger:         newLogger,
	})
	if err != nil {
		return nil, err
	}

	if replica := config.GetString(c, "DATABASE_REPLICA_URL", ""); replica != "" {
		err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.New(postgres.Config{DSN: replica, PreferSimpleProtocol: true})},
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return nil, fmt.Errorf("register read replica: %w", err)
		}
		log.Info().Msg("Read replica registered")
	}

	// Enable required PostgreSQL extensions
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return nil, fmt.Errorf("enable pgcrypto extension: %w", err)
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, fmt.Errorf("test database connection: %w", err)
	}
	return db, nil
}
