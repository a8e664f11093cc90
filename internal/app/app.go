package app

import (
	"github.com/oliveigah/banking-prototype/config"
	"github.com/oliveigah/banking-prototype/internal/adapter/storage/file"
	"github.com/oliveigah/banking-prototype/internal/core/domain"
	"github.com/oliveigah/banking-prototype/internal/service"

	"github.com/rs/zerolog"
)

// App owns the engine's long-lived components: the storage pool, the rates
// service with its refresher, the actor registry and the engine facade.
type App struct {
	Storage  *file.Pool
	Rates    *service.RatesService
	Registry *service.AccountRegistry
	Engine   *service.AccountEngine
}

// New wires the engine. The rates refresher is started here; actors spawn
// lazily on first access.
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	pool, err := file.NewPool(cfg.Storage.BaseFolder, cfg.Storage.Workers, log)
	if err != nil {
		return nil, err
	}

	rates, err := service.NewRatesService(
		service.NewStaticRateSource(cfg.Rates.Seed),
		pool,
		cfg.Rates.RefreshInterval,
		log,
	)
	if err != nil {
		pool.Close()
		return nil, err
	}
	rates.Start()

	registry, err := service.NewAccountRegistry(
		pool,
		rates,
		domain.NewAccountArgs{
			DefaultCurrency: domain.Currency(cfg.Account.DefaultCurrency),
			Limit:           cfg.Account.DefaultLimit,
		},
		cfg.Actor.IdleTimeout,
		cfg.Actor.TransferWorkers,
		log,
	)
	if err != nil {
		rates.Stop()
		pool.Close()
		return nil, err
	}

	return &App{
		Storage:  pool,
		Rates:    rates,
		Registry: registry,
		Engine:   service.NewAccountEngine(registry),
	}, nil
}

// Close stops the refresher, releases the helper-task pool and drains the
// storage workers.
func (a *App) Close() {
	a.Rates.Stop()
	a.Registry.Close()
	a.Storage.Close()
}
