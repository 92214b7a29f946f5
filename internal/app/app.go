package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/vadim/villapost/internal/compositor"
	"github.com/vadim/villapost/internal/config"
	httpcontroller "github.com/vadim/villapost/internal/controller/http"
	"github.com/vadim/villapost/internal/database"
	accountdao "github.com/vadim/villapost/internal/domain/account/dao"
	"github.com/vadim/villapost/internal/domain/queue/dao"
	"github.com/vadim/villapost/internal/domain/queue/policy"
	"github.com/vadim/villapost/internal/domain/queue/scheduler"
	"github.com/vadim/villapost/internal/domain/queue/service"
	"github.com/vadim/villapost/internal/httpx/upstream/facebook"
	"github.com/vadim/villapost/internal/httpx/upstream/gemini"
	"github.com/vadim/villapost/internal/scrape"
	"github.com/vadim/villapost/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pool *pgxpool.Pool

	// Domain policy (interface for HTTP handlers)
	queuePolicy *policy.Policy

	// Optional in-process scheduler; external cron via the trigger endpoint
	// is the usual driver
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := newLogger(cfg.Log)

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(5 * time.Minute)) // pipeline steps can be slow

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(ctx); err != nil {
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize scheduler
	if cfg.Scheduler.Enabled {
		app.scheduler = scheduler.New(app.queuePolicy, cfg.Scheduler.Interval, logger)
	}

	return app, nil
}

// newLogger builds the slog logger: JSON in production, tinted text for
// local development.
func newLogger(cfg config.Log) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Level == "debug" {
		level = slog.LevelDebug
	}

	if cfg.Format == "text" {
		return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// initInfrastructure initializes infrastructure components
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains(ctx context.Context) error {
	// Repositories
	postsRepo := dao.NewPostPostgres(a.pool)
	profilesRepo := accountdao.NewProfilePostgres(a.pool)

	// Service
	queueService := service.New(postsRepo)

	// Pipeline collaborators
	fetcher := scrape.NewFetcher()

	generator, err := gemini.NewGenerator(ctx, a.cfg.Gemini.APIKey,
		gemini.WithModel(a.cfg.Gemini.Model),
	)
	if err != nil {
		return fmt.Errorf("initializing content generator: %w", err)
	}

	fbClient := facebook.New(
		facebook.WithBaseURL(a.cfg.Facebook.BaseURL),
		facebook.WithAPIVersion(a.cfg.Facebook.APIVersion),
	)
	fbPublisher := facebook.NewPublisher(fbClient)

	imageStore, err := storage.NewS3Storage(storage.S3Config{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		PublicURL:       a.cfg.S3.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("initializing image storage: %w", err)
	}

	renderer := compositor.NewRenderer(imageStore)

	// Policy
	a.queuePolicy = policy.New(
		queueService,
		profilesRepo,
		fetcher,
		scrape.ExtractImageURLs,
		generator,
		&compositorAdapter{renderer},
		&facebookPublisherAdapter{fbPublisher},
		imageStore,
		a.logger,
	)

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// Swagger UI documentation
	swaggerHandler := httpcontroller.NewSwaggerHandler("Villapost API", OpenAPISpec)
	swaggerHandler.RegisterRoutes(a.router)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		queueHandler := httpcontroller.NewQueueHandler(a.queuePolicy)
		queueHandler.RegisterRoutes(r)

		triggerHandler := httpcontroller.NewTriggerHandler(a.queuePolicy, a.cfg.Scheduler.CronSecret)
		triggerHandler.RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"database unavailable"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start scheduler if enabled
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop scheduler
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}

// compositorAdapter adapts compositor.Renderer to policy.ImageCompositor
type compositorAdapter struct {
	renderer *compositor.Renderer
}

func (a *compositorAdapter) Render(ctx context.Context, in policy.RenderInput) (string, error) {
	return a.renderer.Render(ctx, in.BaseImageURL, in.Summary, compositor.Brand{
		Color1:  in.Color1,
		Color2:  in.Color2,
		LogoURL: in.LogoURL,
	})
}

// facebookPublisherAdapter adapts facebook.Publisher to policy.SocialPublisher
type facebookPublisherAdapter struct {
	publisher *facebook.Publisher
}

func (a *facebookPublisherAdapter) PublishCarousel(ctx context.Context, in policy.PublishInput) (*policy.PublishOutput, error) {
	out, err := a.publisher.PublishCarousel(ctx, facebook.PublishCarouselInput{
		PageID:      in.PageID,
		AccessToken: in.AccessToken,
		ImageURLs:   in.ImageURLs,
		Message:     in.Message,
	})
	if err != nil {
		return nil, err
	}
	return &policy.PublishOutput{PostID: out.PostID}, nil
}
