package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"headlines/internal/adapter/fetcher"
	"headlines/internal/adapter/geocoder"
	"headlines/internal/adapter/parser"
	"headlines/internal/adapter/platform"
	"headlines/internal/config"
	"headlines/internal/display"
	"headlines/internal/domain"
	"headlines/internal/logger"
	"headlines/internal/metrics"
	"headlines/internal/migrations"
	server "headlines/internal/transport/http"
	"headlines/internal/usecase"
	"headlines/internal/worker"
	"headlines/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App представляет приложение Headlines.
// Координирует работу всех компонентов: сценария получения заголовков,
// воркера, HTTP-сервера, консольного вывода и таблицы в БД.
// Обеспечивает graceful startup и shutdown.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	closeLog func() error
	server   *http.Server
	worker   *worker.Worker
	flow     *usecase.Flow
	board    *display.Board
	console  *display.ConsoleRenderer
	table    storage.HeadlinesTable
}

// New создает и инициализирует приложение: логгер, метрики, необязательную БД
// с миграциями, адаптеры платформы, геокодер, клиента сервиса заголовков и сценарий.
// Возвращает ошибку в случае сбоя любой из инициализационных процедур.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	appLogger, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	slog.SetDefault(appLogger)
	a := &App{config: cfg, logger: appLogger, closeLog: closeLog}
	if err := a.init(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.config
	log := a.logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	var sinks []display.Sink
	if cfg.Database.Enabled {
		table, err := openTable(ctx, cfg.Database, log)
		if err != nil {
			return err
		}
		a.table = table
		sinks = append(sinks, table)
	}
	a.board = display.NewBoard(log, sinks...)

	client := &http.Client{Timeout: config.Duration(cfg.NewsAPI.Timeout)}
	var opts []fetcher.Option
	if b := cfg.NewsAPI.Breaker; b.Enabled {
		opts = append(opts, fetcher.WithBreaker(fetcher.NewBreaker(fetcher.BreakerConfig{
			Name:             "newsapi",
			MaxRequests:      b.MaxRequests,
			Interval:         config.Duration(b.Interval),
			Timeout:          config.Duration(b.Timeout),
			FailureThreshold: b.FailureThreshold,
			MinRequests:      b.MinRequests,
		}, log)))
	}
	headlinesClient, err := fetcher.NewHTTPFetcher(client, cfg.NewsAPI.BaseURL, log, opts...)
	if err != nil {
		return fmt.Errorf("failed to create headlines client: %w", err)
	}

	permissions, err := newPermissions(cfg.Location, log)
	if err != nil {
		return err
	}
	locator := newLocator(cfg.Location, client, log)

	var countryGeocoder usecase.Geocoder
	if path := cfg.Geocoder.BoundariesPath; path != "" {
		g, err := geocoder.Load(path, log)
		if err != nil {
			return fmt.Errorf("failed to load country boundaries: %w", err)
		}
		countryGeocoder = g
	} else {
		log.Warn("No country boundaries configured, default region will be used",
			slog.String("component", "app"),
		)
	}

	headlineFetcher := usecase.NewHeadlineFetcher(
		headlinesClient,
		parser.NewJSONParser(log),
		a.board,
		cfg.NewsAPI.APIKey,
		log,
		appMetrics,
	)
	a.flow = usecase.NewFlow(usecase.FlowDeps{
		Resolver: usecase.NewLocationResolver(permissions, locator, log),
		Mapper:   usecase.NewRegionMapper(countryGeocoder, log),
		Locale:   platform.NewEnvLocale(cfg.Locale.Language),
		Fetcher:  headlineFetcher,
		Defaults: domain.Region{
			Country:  domain.RegionCode(cfg.Defaults.Country),
			Language: domain.LanguageCode(cfg.Defaults.Language),
		},
		Metrics: appMetrics,
	}, log)
	a.worker = worker.New(a.flow, appMetrics, log)

	if cfg.Display.Console {
		a.console = display.NewConsoleRenderer(os.Stdout, cfg.Display.PlaceholderImage, log)
	}
	if cfg.Server.Enabled {
		handler := server.NewHandler(
			log,
			usecase.NewHeadlinesGetterUseCase(a.board),
			a.worker,
			a.worker,
			config.Duration(cfg.Server.RefreshInterval),
			cfg.Display.PlaceholderImage,
		)
		router := server.NewServer(log, handler, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		a.server = &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	return nil
}

func openTable(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*storage.PostgresHeadlinesDB, error) {
	dbPool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if err := migrations.Apply(ctx, log, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	return storage.NewPostgresHeadlinesDB(dbPool, log), nil
}

func newPermissions(cfg config.LocationConfig, log *slog.Logger) (usecase.PermissionProvider, error) {
	if cfg.Permission == "prompt" {
		return platform.NewPromptPermissions(os.Stdin, os.Stdout, log), nil
	}
	grant, err := domain.ParseGrant(cfg.Permission)
	if err != nil {
		return nil, fmt.Errorf("invalid location permission: %w", err)
	}
	return platform.NewStaticPermissions(grant), nil
}

func newLocator(cfg config.LocationConfig, client *http.Client, log *slog.Logger) usecase.Locator {
	if cfg.Provider == "ip" {
		return platform.NewIPLocator(client, cfg.IPEndpoint, log)
	}
	if cfg.Latitude == nil || cfg.Longitude == nil {
		return platform.NewStaticLocator(nil)
	}
	return platform.NewStaticLocator(&domain.Coordinates{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude})
}

// Run запускает воркер, HTTP-сервер и консольный вывод и блокируется до
// SIGINT/SIGTERM или отмены ctx. SIGHUP запускает новый прогон сценария.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Starting Headlines",
		slog.String("component", "app"),
		slog.Bool("http", a.server != nil),
		slog.Bool("console", a.console != nil),
		slog.Bool("database", a.table != nil),
	)

	g, gctx := errgroup.WithContext(ctx)

	if a.console != nil {
		g.Go(func() error { return a.console.Run(gctx, a.board) })
	}
	if a.server != nil {
		listener, err := net.Listen("tcp", a.server.Addr)
		if err != nil {
			a.close()
			return fmt.Errorf("failed to create listener: %w", err)
		}
		a.logger.Info("HTTP server ready",
			slog.String("component", "server"),
			slog.String("address", listener.Addr().String()),
		)
		g.Go(func() error {
			if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("HTTP server shutdown failed", slog.Any("error", err))
			}
			return nil
		})
	}
	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				a.logger.Info("Refresh signal received", slog.String("component", "app"))
				a.worker.Trigger(worker.SourceSignal)
			case <-gctx.Done():
				return nil
			}
		}
	})

	a.worker.Start(gctx)

	err := g.Wait()
	a.logger.Info("Starting graceful shutdown", slog.String("component", "app"))
	a.close()
	return err
}

// close отменяет активный запрос, останавливает воркер и освобождает ресурсы.
func (a *App) close() {
	if a.flow != nil {
		a.flow.Cancel()
	}
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.table != nil {
		a.table.Close()
	}
	a.logger.Info("Application stopped", slog.String("component", "app"))
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log files: %v\n", err)
		}
		a.closeLog = nil
	}
}
