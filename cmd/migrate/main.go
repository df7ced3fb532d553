package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"

	"marketplace/migrations"
	"marketplace/pkg/config"
	"marketplace/pkg/logger"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func main() {
	var (
		dir     = flag.String("dir", "", "directory with migration files (default: migrations embedded in the binary)")
		command = flag.String("command", "up", "migration command (up, down, status, create)")
		name    = flag.String("name", "", "name for new migration (used with create command)")
	)
	flag.Parse()

	log := logger.New()
	defer log.Sync()
	fatal := func(format string, args ...interface{}) {
		log.Error(format, args...)
		log.Sync()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		fatal("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		fatal("Failed to set dialect: %v", err)
	}

	migrationsDir := *dir
	if migrationsDir == "" {
		goose.SetBaseFS(migrations.FS)
		migrationsDir = "."
	}

	switch *command {
	case "create":
		if *name == "" {
			fatal("Name is required for create command")
		}
		if *dir == "" {
			fatal("-dir is required for create command")
		}
		if err := goose.Create(db, *dir, *name, "sql"); err != nil {
			fatal("Failed to create migration: %v", err)
		}
		log.Info("Created migration: %s", *name)
	case "up":
		if err := goose.Up(db, migrationsDir); err != nil {
			fatal("Failed to run migrations: %v", err)
		}
		log.Info("Migrations applied successfully")
	case "down":
		if err := goose.Down(db, migrationsDir); err != nil {
			fatal("Failed to rollback migrations: %v", err)
		}
		log.Info("Migrations rolled back successfully")
	case "status":
		if err := goose.Status(db, migrationsDir); err != nil {
			fatal("Failed to get migration status: %v", err)
		}
	default:
		fatal("Unknown command: %s", *command)
	}
}
