package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ByteReview/internal/config"
	"ByteReview/internal/confirm"
	"ByteReview/internal/httpapi"
	"ByteReview/internal/infrastructure/llm"
	"ByteReview/internal/infrastructure/memstore"
	"ByteReview/internal/infrastructure/mongostore"
	"ByteReview/internal/infrastructure/storage"
	"ByteReview/internal/logging"
	"ByteReview/internal/ports"
	"ByteReview/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	store   ports.ByteStore
	review  *usecase.ReviewService
	machine *confirm.Machine
	closers []func(context.Context) error
}

// New opens the configured store and session backend.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := a.openSessions(ctx)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	a.wire(store, sessions)
	return a, nil
}

// NewWithStore wires an already opened store with in-memory sessions.
func NewWithStore(cfg config.Config, store ports.ByteStore, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	a := &Application{cfg: cfg, logger: baseLogger}
	a.wire(store, confirm.NewMemoryStoreWithTTL(cfg.Sessions.TTL))
	return a
}

func (a *Application) wire(store ports.ByteStore, sessions confirm.Store) {
	a.store = store
	a.review = usecase.NewReviewService(usecase.ReviewDeps{
		Store:    store,
		PageSize: a.cfg.Review.PageSize,
		Logger:   a.logger.With("component", "review"),
	})
	a.machine = confirm.NewMachine(sessions, a.logger.With("component", "confirm"), a.review.Flows()...)
}

func (a *Application) openStore(ctx context.Context) (ports.ByteStore, error) {
	log := a.logger.With("component", "store", "driver", a.cfg.Store.Driver)

	switch a.cfg.Store.Driver {
	case config.DriverMongo:
		s, err := mongostore.Connect(ctx, a.cfg.Mongo.URL, a.cfg.Mongo.Database, a.cfg.Mongo.Collection)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		log.Info("store connected", "database", a.cfg.Mongo.Database, "collection", a.cfg.Mongo.Collection)
		return s, nil

	case config.DriverPostgres:
		db, err := storage.Open(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })
		repo := storage.NewPostgresRepository(db, a.cfg.Database.Table)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		log.Info("store connected", "table", a.cfg.Database.Table)
		return repo, nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on exit")
		return memstore.New(), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}

func (a *Application) openSessions(ctx context.Context) (confirm.Store, error) {
	if a.cfg.Sessions.Driver != config.SessionsRedis {
		return confirm.NewMemoryStoreWithTTL(a.cfg.Sessions.TTL), nil
	}

	rs, err := confirm.NewRedisStoreWithURL(ctx, a.cfg.Sessions.RedisURL, a.cfg.Sessions.TTL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return rs.Close() })
	return rs, nil
}

// Store exposes the opened document store.
func (a *Application) Store() ports.ByteStore { return a.store }

// Review exposes the review service.
func (a *Application) Review() *usecase.ReviewService { return a.review }

// Categorizer builds the batch job around the configured model client.
func (a *Application) Categorizer(workers int) *usecase.Categorizer {
	if workers <= 0 {
		workers = a.cfg.Categorize.Workers
	}
	limiter := llm.NewLimiter(a.cfg.Categorize.RatePerSecond, a.cfg.Categorize.Burst)
	return usecase.NewCategorizer(usecase.CategorizerDeps{
		Store:      a.store,
		Classifier: llm.NewChatGPTClient(a.cfg.ChatGPT, limiter),
		Workers:    workers,
		Logger:     a.logger.With("component", "categorize"),
	})
}

// Handler builds the HTTP API.
func (a *Application) Handler() *echo.Echo {
	return httpapi.New(httpapi.Deps{
		Review:  a.review,
		Flows:   a.machine,
		Logger:  a.logger.With("component", "http"),
		Metrics: true,
	})
}

// Run serves the HTTP API until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	e := a.Handler()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		if err := e.Start(a.cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// Close releases store and session connections.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
