// Command migrate applies or rolls back the embedded database migrations
// against the database named by the configuration.
//
// Usage:
//
//	migrate up
//	migrate down
//	migrate steps N
//	migrate force VERSION
//	migrate version
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"blogapi/internal/config"
	"blogapi/internal/repository"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// migrateLogger routes golang-migrate's log output through logrus.
type migrateLogger struct {
	log *logrus.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Infof(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.IsLevelEnabled(logrus.DebugLevel)
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	db, err := repository.NewDB(cfg.Database.URL, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	m, err := repository.NewMigrate(db)
	if err != nil {
		log.Fatalf("Failed to prepare migrations: %v", err)
	}
	// Closing m closes db as well.
	defer m.Close()
	m.Log = migrateLogger{log: log}

	if err := run(m, os.Args[1:]); err != nil {
		log.Errorf("Migration command %q failed: %v", os.Args[1], err)
		m.Close()
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("Database has no migrations applied.")
	case err != nil:
		log.Errorf("Failed to read migration version: %v", err)
	default:
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current migration version")
	}
}

func run(m *migrate.Migrate, args []string) error {
	switch args[0] {
	case "up":
		return ignoreNoChange(m.Up())
	case "down":
		return ignoreNoChange(m.Down())
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return ignoreNoChange(m.Steps(n))
	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(v)
	case "version":
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a numeric argument", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid argument %q: %w", args[1], err)
	}
	return n, nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down | steps N | force VERSION | version")
}
