package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ordermgmt/ordersvc/internal/adapters/httpserver"
	"github.com/ordermgmt/ordersvc/internal/adapters/repo/postgres"
	"github.com/ordermgmt/ordersvc/internal/domain"
	"github.com/ordermgmt/ordersvc/internal/health"
	"github.com/ordermgmt/ordersvc/internal/metrics"
	"github.com/ordermgmt/ordersvc/internal/usecase"
	"github.com/ordermgmt/ordersvc/internal/version"
)

type App struct {
	DB          *gorm.DB
	Config      Config
	CustomerUC  *usecase.CustomerUC
	ProductUC   *usecase.ProductUC
	OrderLineUC *usecase.OrderLineUC
	OrderUC     *usecase.OrderUC
	Metrics     *metrics.Metrics
	Health      *health.Handler
}

// NewApp wires repositories and services on db. cfg.OrderFinder selects the
// order finder strategy.
func NewApp(db *gorm.DB, cfg Config, m *metrics.Metrics) (*App, error) {
	orderRepo := postgres.NewOrderRepo(db)

	var orderFinder domain.OrderFinder
	switch finder := cfg.OrderFinder; finder {
	case "", FinderCriteria:
		orderFinder = postgres.NewCriteriaOrderFinder(db)
	case FinderTemplate:
		orderFinder = orderRepo
	default:
		return nil, fmt.Errorf("unknown order finder %q", finder)
	}
	if m == nil {
		m = metrics.New()
	}

	app := &App{DB: db, Config: cfg, Metrics: m}
	app.CustomerUC = &usecase.CustomerUC{Customers: postgres.NewCustomerRepo(db)}
	app.ProductUC = &usecase.ProductUC{Products: postgres.NewProductRepo(db)}
	app.OrderLineUC = &usecase.OrderLineUC{Lines: postgres.NewOrderLineRepo(db)}
	app.OrderUC = &usecase.OrderUC{
		Orders:    orderRepo,
		Finder:    orderFinder,
		Tx:        postgres.NewTransactor(db),
		Customers: app.CustomerUC,
		Products:  app.ProductUC,
		Lines:     app.OrderLineUC,
		Metrics:   m,
	}

	app.Health = health.NewHandler(version.Version())
	app.Health.RegisterChecker("database", health.NewFuncChecker("database", func(ctx context.Context) error {
		return postgres.Ping(ctx, db)
	}))
	return app, nil
}

// HTTPHandler serves the API under /api/v1 plus the operational endpoints.
func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.CustomerUC, a.ProductUC, a.OrderLineUC, a.OrderUC,
		httpserver.WithObserver(a.Metrics),
		httpserver.WithRateLimit(a.Config.RateLimitRPS, a.Config.RateLimitBurst),
		httpserver.WithHandler("GET /metrics", promhttp.Handler()),
		httpserver.WithHandler("GET /healthz", a.Health),
		httpserver.WithHandler("GET /livez", http.HandlerFunc(health.LivenessHandler)),
		httpserver.WithHandler("GET /readyz", http.HandlerFunc(a.Health.ReadinessHandler)),
	)
}

func (a *App) Migrate() error {
	return postgres.Migrate(a.DB)
}

// OpenDB connects using cfg and applies the schema when AutoMigrate is set.
func OpenDB(ctx context.Context, cfg Config) (*gorm.DB, error) {
	db, err := postgres.Open(ctx, cfg.DBOptions(zlog.Logger))
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			_ = postgres.Close(db)
			return nil, err
		}
	}
	return db, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config) error {
	logger := zlog.With().Str("component", "app").Logger()

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			logger.Warn().Err(err).Msg("close database")
		}
	}()

	application, err := NewApp(db, cfg, nil)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           application.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	release, commit, _ := version.Info()
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("db_driver", cfg.DBDriver).
			Str("order_finder", cfg.OrderFinder).
			Str("version", release).
			Str("commit", commit).
			Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
		return shutdownHTTP(srv, cfg.ShutdownTimeout)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func shutdownHTTP(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
