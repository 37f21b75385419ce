package config

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/expensedecoder/api/utils"
)

//go:embed migrations
var migrationsFS embed.FS

// InitDB opens the database selected by cfg.DataBackend. The memory backend
// has no database and returns (nil, nil).
func InitDB(cfg *Config) (*sql.DB, error) {
	switch cfg.DataBackend {
	case BackendPostgres:
		return openPostgres(cfg.DatabaseURL)
	case BackendSQLite:
		return openSQLite(cfg.SQLiteDBPath)
	case BackendMemory:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
}

func openPostgres(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	return db, nil
}

// RunMigrations applies the embedded migrations for the backend. It is a
// no-op for the memory backend.
func RunMigrations(db *sql.DB, backend string) error {
	if backend == BackendMemory {
		return nil
	}

	var (
		driver database.Driver
		err    error
	)
	switch backend {
	case BackendPostgres:
		driver, err = migratepg.WithInstance(db, &migratepg.Config{})
	case BackendSQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		return fmt.Errorf("unsupported data backend %q", backend)
	}
	if err != nil {
		return fmt.Errorf("create %s migration driver: %w", backend, err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+backend)
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	// Closing m would close db, which the caller still owns.
	defer source.Close()

	m, err := migrate.NewWithInstance("iofs", source, backend, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migration: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		utils.SafeInfo("[DB] %s schema at version %d (dirty=%v)", backend, version, dirty)
	}
	return nil
}
