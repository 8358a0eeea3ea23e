package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/safar/barrio-store/internal/config"
	"github.com/safar/barrio-store/migrations"
	"go.uber.org/zap"
)

// Open builds the DocStore for the configured backend. SQL backends get their
// schema applied before use.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*DocStore, error) {
	var backend Backend

	switch cfg.Storage.Backend {
	case config.BackendFile:
		fb, err := NewFileBackend(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		backend = fb

	case config.BackendMemory:
		backend = NewMemoryBackend()

	case config.BackendSQLite, config.BackendPostgres:
		if cfg.Storage.Backend == config.BackendSQLite {
			if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := NewConnection(&cfg.Database)
		if err != nil {
			return nil, err
		}
		if _, err := Migrate(ctx, db, migrations.FS, "up"); err != nil {
			db.Close()
			return nil, err
		}
		sb, err := NewSQLBackend(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		backend = sb

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	log.Info("document store ready", zap.String("backend", cfg.Storage.Backend))
	return NewDocStore(backend, log), nil
}
