package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/jmoiron/sqlx"

	"github.com/habitmate/habitmate/internal/cache"
	"github.com/habitmate/habitmate/internal/config"
	"github.com/habitmate/habitmate/internal/db"
	"github.com/habitmate/habitmate/internal/realtime"
	"github.com/habitmate/habitmate/internal/repository"
	"github.com/habitmate/habitmate/internal/service"
	"github.com/habitmate/habitmate/internal/storage"
)

type App struct {
	Cfg             *config.Config
	DB              *sqlx.DB
	Firestore       *firestore.Client // nil unless HABIT_STORE=firestore
	Cache           *cache.Cache
	Subscriptions   *service.SubscriptionGroup
	AuthService     *service.AuthService
	UserService     *service.UserService
	ProfileService  *service.ProfileService
	EmailService    *service.EmailService
	FileService     *service.FileService
	HabitService    *service.HabitService
	ProgressService *service.ProgressService
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{Cfg: cfg, DB: database, Subscriptions: service.NewSubscriptionGroup()}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, a.abort(fmt.Errorf("failed to run migrations: %w", err))
	}

	a.Cache, err = cache.Open(ctx, cfg.CacheDSN)
	if err != nil {
		return nil, a.abort(err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	profileRepository := repository.NewProfileRepository(database)
	fileRepository := repository.NewFileRepository(database)

	habitRepository, completionRepository, err := a.habitStore(ctx)
	if err != nil {
		return nil, a.abort(err)
	}

	// Storage
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize storage: %w", err))
	}

	// Services
	a.EmailService = service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	a.FileService = service.NewFileService(fileRepository, fileStorage)
	a.HabitService = service.NewHabitService(habitRepository, completionRepository, a.Cache, a.Subscriptions, cfg.Location())
	a.ProgressService = service.NewProgressService(a.HabitService)
	a.AuthService = service.NewAuthService(
		userRepository,
		profileRepository,
		a.Cache,
		a.EmailService,
		cfg.JWTSecret,
		cfg.IsProduction(),
		cfg.JWTExpiry,
	)
	a.UserService = service.NewUserService(
		userRepository,
		profileRepository,
		habitRepository,
		completionRepository,
		a.Cache,
		a.FileService,
		a.EmailService,
	)
	a.ProfileService = service.NewProfileService(profileRepository)

	return a, nil
}

// habitStore picks the habit and completion backend named by HABIT_STORE.
func (a *App) habitStore(ctx context.Context) (repository.HabitRepository, repository.CompletionRepository, error) {
	switch a.Cfg.HabitStore {
	case config.HabitStoreFirestore:
		client, err := repository.NewFirestoreClient(ctx, a.Cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		a.Firestore = client
		slog.Info("habit store: firestore", "project_id", a.Cfg.FirestoreProjectID)
		return repository.NewFirestoreHabitRepository(client), repository.NewFirestoreCompletionRepository(client), nil
	case config.HabitStoreSQL, "":
		hub := realtime.NewHub()
		return repository.NewHabitRepository(a.DB, hub), repository.NewCompletionRepository(a.DB, hub), nil
	default:
		return nil, nil, fmt.Errorf("unknown habit store %q", a.Cfg.HabitStore)
	}
}

// Ping checks the database; used by the health endpoint.
func (a *App) Ping(ctx context.Context) error {
	return a.DB.PingContext(ctx)
}

func (a *App) abort(err error) error {
	return errors.Join(err, a.Close())
}

// Close disposes live subscriptions before closing the stores they read from.
func (a *App) Close() error {
	if a.Subscriptions != nil {
		a.Subscriptions.CloseAll()
	}

	var errs []error
	if a.Firestore != nil {
		errs = append(errs, a.Firestore.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, db.Close(a.DB))
	}
	return errors.Join(errs...)
}
