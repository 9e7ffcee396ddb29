package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"SkinStore/pkg/kit"
)

func main() {
	log := kit.NewLogger("migrate")
	defer func() { _ = log.Sync() }()

	databaseURL := pflag.StringP("database-url", "d", os.Getenv("DATABASE_URL"), "postgres connection string")
	migrationsPath := pflag.StringP("migrations-path", "m", "migrations", "directory with .sql migrations")
	down := pflag.Bool("down", false, "roll back one migration instead of applying all")
	pflag.Parse()

	if *databaseURL == "" {
		log.Fatal("--database-url flag or DATABASE_URL is required")
	}

	// Accept both bare DSNs and postgres:// URLs.
	dsn := strings.TrimPrefix(strings.TrimPrefix(*databaseURL, "postgresql://"), "postgres://")

	m, err := migrate.New(
		fmt.Sprintf("file://%s", *migrationsPath),
		fmt.Sprintf("pgx5://%s", dsn),
	)
	if err != nil {
		log.Fatal("init migrate failed", zap.Error(err))
	}
	m.Log = &migrationLogger{log: log}

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return
		}
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migration applied")
}

type migrationLogger struct {
	log *zap.Logger
}

func (l *migrationLogger) Printf(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l *migrationLogger) Verbose() bool { return false }
