package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PracticalMetal/major-notice/internal/config"
	"github.com/PracticalMetal/major-notice/internal/database"
	"github.com/PracticalMetal/major-notice/internal/database/migration"
	handlers "github.com/PracticalMetal/major-notice/internal/http/handler"
	"github.com/PracticalMetal/major-notice/internal/repository"
	"github.com/PracticalMetal/major-notice/internal/repository/firestore"
	"github.com/PracticalMetal/major-notice/internal/repository/postgres"
	"github.com/PracticalMetal/major-notice/internal/storage"
)

// stores groups the repositories of one document store backend.
type stores struct {
	docs  repository.DocumentRepository
	orgs  repository.OrganizationRepository
	users repository.UserRepository
	ping  handlers.Pinger
	close func() error
}

func openStores(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &stores{
			docs:  postgres.NewDocumentPostgres(db),
			orgs:  postgres.NewOrganizationPostgres(db),
			users: postgres.NewUserPostgres(db),
			ping:  db,
			close: db.Close,
		}, nil

	case config.StoreBackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.GCP)
		if err != nil {
			return nil, err
		}
		docs := firestore.NewDocumentFirestore(client)
		return &stores{
			docs:  docs,
			orgs:  docs,
			users: firestore.NewUserFirestore(client),
			ping:  firestore.NewPinger(client),
			close: client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func openBlobStore(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.BlobBackend {
	case config.BlobBackendMinIO:
		return storage.NewMinIO(ctx, cfg.MinIO)
	case config.BlobBackendGCS:
		return storage.NewGCS(ctx, cfg.GCP)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}
