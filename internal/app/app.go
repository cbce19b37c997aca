// Package app wires the catalog module's repositories, adapters, and
// services into a single runnable unit, mirroring the role the teacher
// repo's internal/server package plays for its HTTP layer. This module
// exposes no HTTP API, so App's job ends at construction: it hands back
// ready-to-use services for an embedder (a worker, a CLI, a future API
// layer) to drive.
package app

import (
	"context"
	"fmt"

	"github.com/kosaka-studio/mediarepo/internal/core/catalog/adapters/imaging"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/adapters/objects"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/adapters/postgres"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/services"
	"github.com/kosaka-studio/mediarepo/internal/shared/cache"
	"github.com/kosaka-studio/mediarepo/internal/shared/config"
	"github.com/kosaka-studio/mediarepo/internal/shared/database"
)

// App bundles the catalog module's repositories and services once wired
// against live infrastructure (Postgres, object storage, optionally Redis).
type App struct {
	Media            ports.MediaRepository
	Replicas         ports.ReplicasRepository
	Tags             ports.TagsRepository
	TagTypes         ports.TagTypesRepository
	Sources          ports.SourcesRepository
	ExternalServices ports.ExternalServicesRepository
	MediaService     *services.MediaService

	db          *database.Manager
	cache       *cache.RedisCache
	imagingStop context.CancelFunc
}

// New connects to Postgres and the configured object store, applies
// pending migrations, and wires every repository and service the catalog
// module exposes.
func New(cfg *config.Config) (*App, error) {
	if err := database.InitializeManager(cfg); err != nil {
		return nil, fmt.Errorf("initialize database manager: %w", err)
	}
	db := database.GetInstance()

	runner := database.NewMigrationRunner(db)
	if err := runner.Up(cfg.Database.MigrationsPath); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	conn := db.DB()
	tagsRepo := postgres.NewTagsRepository(conn)
	tagTypesRepo := postgres.NewTagTypesRepository(conn)
	sourcesRepo := postgres.NewSourcesRepository(conn)
	externalServicesRepo := postgres.NewExternalServicesRepository(conn)
	replicasRepo := postgres.NewReplicasRepository(conn)
	mediaRepo := postgres.NewMediaRepository(conn, tagsRepo)

	var tags ports.TagsRepository = tagsRepo
	var redisCache *cache.RedisCache
	if cfg.Cache.Enabled {
		var err error
		redisCache, err = cache.NewRedisCache(
			fmt.Sprintf("%s:%d", cfg.Cache.Host, cfg.Cache.Port),
			cfg.Cache.Password,
			cfg.Cache.DB,
		)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		tags = services.NewCachedTagsRepository(tagsRepo, redisCache, cfg.Cache.TTL)
	}

	objectsRepo, err := buildObjectsRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize object storage: %w", err)
	}
	registry := services.NewObjectsRegistry(objectsRepo)

	imagingCtx, stopImaging := context.WithCancel(context.Background())
	processor := imaging.NewProcessor(imagingCtx, 4)

	mediaService := services.NewMediaService(mediaRepo, replicasRepo, registry, processor)

	return &App{
		Media:            mediaRepo,
		Replicas:         replicasRepo,
		Tags:             tags,
		TagTypes:         tagTypesRepo,
		Sources:          sourcesRepo,
		ExternalServices: externalServicesRepo,
		MediaService:     mediaService,

		db:          db,
		cache:       redisCache,
		imagingStop: stopImaging,
	}, nil
}

// Close releases every resource New acquired: the imaging worker pool, the
// Redis connection (if any), and the database connection pool.
func (a *App) Close() error {
	a.imagingStop()
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			return fmt.Errorf("close cache: %w", err)
		}
	}
	return a.db.Close()
}

// buildObjectsRepository constructs the ObjectsRepository for the
// configured scheme. Only one backend is wired per deployment; the
// registry still indexes by scheme so additional backends can be added
// without touching callers.
func buildObjectsRepository(cfg *config.Config) (ports.ObjectsRepository, error) {
	switch cfg.Objects.Scheme {
	case "file":
		return objects.NewFSRepository(cfg.Objects.Root)
	case "s3", "minio":
		repo, err := objects.NewMinioRepository(
			cfg.Objects.Endpoint,
			cfg.Objects.AccessKey,
			cfg.Objects.SecretKey,
			cfg.Objects.Region,
			cfg.Objects.Bucket,
			cfg.Objects.UseSSL,
		)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported objects scheme %q", cfg.Objects.Scheme)
	}
}
