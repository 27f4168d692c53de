package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/shiftloop/fulfillment-service/internal/config"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

// App holds the process-level resources. Exactly one of DB or Store is set:
// DB when DB_URL is configured, the in-memory Store otherwise (local
// development only).
type App struct {
	Config *config.Config
	DB     *pgxpool.Pool
	Store  *repositories.MemoryStore
}

func NewApp(cfg *config.Config) (*App, error) {
	if cfg.DBUrl == "" {
		utils.Logger.Warn("Running fulfillment-service on the in-memory store; state is lost on restart")
		return &App{Config: cfg, Store: repositories.NewMemoryStore()}, nil
	}

	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)

	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		dbPool, err = newDBPool(ctx, cfg.DBUrl)
		if err == nil {
			utils.Logger.Infof("fulfillment-service connected to DB on attempt %d", i)
			break
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)

		if i == maxRetries {
			return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
		}
		time.Sleep(backoff)
		backoff *= 2
	}

	return &App{Config: cfg, DB: dbPool}, nil
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		utils.Logger.Info("fulfillment-service DB connection closed.")
	}
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}

// Repositories bundles the per-entity stores so main wires services against
// one value regardless of the backing (Postgres or memory).
type Repositories struct {
	Shifts       repositories.ShiftRepository
	Applications repositories.ApplicationRepository
	Availability repositories.AvailabilityRepository
	CheckIns     repositories.CheckInRepository
	Workers      repositories.WorkerRepository
	Venues       repositories.VenueRepository
}

func (a *App) BuildRepositories() *Repositories {
	if a.DB != nil {
		return &Repositories{
			Shifts:       repositories.NewShiftRepository(a.DB),
			Applications: repositories.NewApplicationRepository(a.DB),
			Availability: repositories.NewAvailabilityRepository(a.DB),
			CheckIns:     repositories.NewCheckInRepository(a.DB),
			Workers:      repositories.NewWorkerRepository(a.DB),
			Venues:       repositories.NewVenueRepository(a.DB),
		}
	}
	return &Repositories{
		Shifts:       repositories.NewMemoryShiftRepository(a.Store),
		Applications: repositories.NewMemoryApplicationRepository(a.Store),
		Availability: repositories.NewMemoryAvailabilityRepository(a.Store),
		CheckIns:     repositories.NewMemoryCheckInRepository(a.Store),
		Workers:      repositories.NewMemoryWorkerRepository(a.Store),
		Venues:       repositories.NewMemoryVenueRepository(a.Store),
	}
}
