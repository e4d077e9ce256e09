package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/bizledger/backend/internal/infrastructure/config"
	"github.com/bizledger/backend/internal/infrastructure/logger"
	"github.com/bizledger/backend/internal/infrastructure/migration"
	"github.com/bizledger/backend/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// dbCommand runs against an open migrator
type dbCommand struct {
	usage string
	run   func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var dbCommands = map[string]dbCommand{
	"up": {"up", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Up()
	}},
	"down": {"down", func(m *migration.Migrator, _ []string, _ *zap.Logger) error {
		return m.Down()
	}},
	"step": {"step <n>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", args[0])
		}
		return m.Steps(n)
	}},
	"goto": {"goto <version>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.GoTo(uint(v))
	}},
	"force": {"force <version>", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return m.Force(v)
	}},
	"status": {"status", func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		st, err := m.Status()
		if err != nil {
			return err
		}
		log.Info("Migration status",
			zap.Uint("version", st.Version),
			zap.Uint("latest", st.Latest),
			zap.Bool("pending", st.Pending()),
			zap.Bool("dirty", st.Dirty),
		)
		return nil
	}},
	"drop": {"drop -confirm", func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
			return errors.New("drop removes every ledger table; rerun as 'migrate drop -confirm'")
		}
		return m.Drop()
	}},
}

// arity is the number of positional arguments a command needs
var arity = map[string]int{"step": 1, "goto": 1, "force": 1}

func main() {
	var migrationsPath, logLevel string
	flag.StringVar(&migrationsPath, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	command, rest := args[0], args[1:]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	switch command {
	case "create":
		if len(rest) == 0 {
			log.Fatal("Usage: migrate create <name> [description]")
		}
		description := ""
		if len(rest) > 1 {
			description = rest[1]
		}
		mf, err := migration.CreateMigration(sourceDir(migrationsPath), rest[0], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
		return
	case "list":
		files, err := migration.ListMigrations(sourceDir(migrationsPath))
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return
	}

	cmd, ok := dbCommands[command]
	if !ok {
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(2)
	}
	if len(rest) < arity[command] {
		log.Fatal("Missing argument. Usage: migrate " + cmd.usage)
	}

	m, closeDB := openMigrator(migrationsPath, log)
	defer closeDB()
	if err := cmd.run(m, rest, log); err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

// openMigrator connects to the configured postgres database
func openMigrator(migrationsPath string, log *zap.Logger) (*migration.Migrator, func()) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver == "sqlite" {
		log.Fatal("sqlite databases are migrated on server startup; migrate only targets postgres")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	var source fs.FS = migrations.FS
	if migrationsPath != "" {
		source = os.DirFS(migrationsPath)
	}
	m, err := migration.New(db, source, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	return m, func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
		_ = db.Close()
	}
}

// sourceDir resolves the on-disk migrations directory for create and list
func sourceDir(path string) string {
	if path == "" {
		path = defaultMigrationsPath
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func printUsage() {
	fmt.Fprint(os.Stderr, `bizledger schema migrations

Usage: migrate [-path dir] [-log-level level] <command> [args]

  up                    apply all pending migrations
  down                  roll back all migrations
  step <n>              apply n migrations, negative rolls back
  goto <version>        migrate to a version
  status                show applied and latest versions
  force <version>       record a version without running it
  drop -confirm         drop every ledger table
  create <name> [desc]  add a new up/down pair under -path
  list                  list migration files under -path

Connection settings come from config.toml, .env and BIZLEDGER_DATABASE_*.
`)
}
