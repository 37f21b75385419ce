package commands

import (
	"fmt"
	"log"

	"github.com/expensedecoder/api/config"
	"github.com/expensedecoder/api/storage"
)

// openStore connects the configured backend, optionally applying migrations
// first.
func openStore(cfg *config.Config, migrate bool) (storage.Store, error) {
	if cfg.DataBackend == config.BackendMemory {
		log.Println("⚠️  Using in-memory storage, data is lost on restart")
		return storage.NewMemoryStore(), nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Printf("✅ Database connected successfully (%s)", cfg.DataBackend)

	if migrate {
		if err := config.RunMigrations(db, cfg.DataBackend); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	dialect := storage.DialectPostgres
	if cfg.DataBackend == config.BackendSQLite {
		dialect = storage.DialectSQLite
	}
	return storage.NewSQLStore(db, dialect), nil
}
