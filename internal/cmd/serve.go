package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"google.golang.org/api/option"

	"github.com/tradepost/web/internal/auth"
	"github.com/tradepost/web/internal/config"
	"github.com/tradepost/web/internal/db"
	"github.com/tradepost/web/internal/logger"
	appMiddleware "github.com/tradepost/web/internal/middleware"
	"github.com/tradepost/web/internal/page"
	"github.com/tradepost/web/internal/product"
	"github.com/tradepost/web/internal/storage"
	"github.com/tradepost/web/internal/upload"
	"github.com/tradepost/web/internal/user"
	"github.com/tradepost/web/internal/view"

	_ "github.com/tradepost/web/docs/swagger"
)

const defaultSessionSecret = "change_me_in_production"

// ServeOptions defines the options for the `serve` command.
type ServeOptions struct {
	Port          string
	SkipMigrate   bool
	ShutdownGrace time.Duration
}

// NewServeOptions provides an initialised ServeOptions instance.
func NewServeOptions() *ServeOptions {
	return &ServeOptions{}
}

// NewServeCommand creates the `serve` command.
func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the TradePost web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return o.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&o.Port, "port", "p", "", "Port to listen on (overrides PORT)")
	cmd.Flags().BoolVar(&o.SkipMigrate, "skip-migrate", false, "Do not apply database migrations on start")
	cmd.Flags().DurationVar(&o.ShutdownGrace, "shutdown-grace", 30*time.Second, "Time allowed for in-flight requests on shutdown")

	return cmd
}

// Run wires every dependency and serves HTTP until ctx is cancelled.
func (o *ServeOptions) Run(ctx context.Context) error {
	cfg, envLoaded := config.Load()
	if o.Port != "" {
		cfg.Port = o.Port
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if !envLoaded {
		log.Debug().Msg("no .env file found, reading configuration from the environment")
	}
	if cfg.IsProduction() && cfg.SessionSecret == defaultSessionSecret {
		return errors.New("SESSION_SECRET must be set in production")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if !o.SkipMigrate {
		version, err := db.Migrate(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		log.Info().Uint("version", version).Msg("database migrated")
	}

	store, media, closeStore, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("object storage init failed: %w", err)
	}
	defer closeStore()

	views, err := view.New()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}

	// Wire dependencies: repository → service → handler
	userSvc := user.NewService(user.NewRepository(pool))
	productSvc := product.NewService(product.NewRepository(pool))
	productHandler := product.NewHandler(productSvc, cfg.ListingsPageSize)
	userHandler := user.NewHandler(userSvc, productSvc)

	authSvc := auth.NewService(userSvc, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	authHandler := auth.NewHandler(authSvc, views)

	uploader := upload.NewService(store, cfg.StoragePublicBase)
	pages := page.New(authSvc, productSvc, uploader, views, page.Options{
		SignInPath:       "/signin",
		ListingsPath:     "/listings",
		UploadDirectory:  cfg.UploadDirectory,
		PageSize:         cfg.PageSize,
		ListingsPageSize: cfg.ListingsPageSize,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		DraftTTL:         cfg.DraftTTL,
	})
	authHandler.OnSignOut(pages.Forget)
	go pages.SweepDrafts(ctx, time.Minute)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(log))
	r.Use(chiMiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	if media != nil {
		r.Handle("/media/*", http.StripPrefix("/media/", media))
	}

	// Pages
	r.Get("/signin", authHandler.SignInPage)
	r.Post("/signin", authHandler.SignIn)
	r.Get("/register", authHandler.RegisterPage)
	r.Post("/register", authHandler.Register)
	r.Post("/signout", authHandler.SignOut)
	pages.Routes(r)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))
		r.Use(appMiddleware.RequireAuth(sessionResolver(authSvc)))

		r.Get("/users/me", userHandler.GetMe)
		r.Get("/products", productHandler.List)
		r.Post("/products", productHandler.Create)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Str("storage", cfg.StorageDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), o.shutdownGrace())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func (o *ServeOptions) shutdownGrace() time.Duration {
	if o.ShutdownGrace <= 0 {
		return 30 * time.Second
	}
	return o.ShutdownGrace
}

// sessionResolver exposes the auth service to the API middleware.
func sessionResolver(svc *auth.Service) appMiddleware.Resolver {
	return appMiddleware.ResolverFunc(func(r *http.Request) (string, string, error) {
		p, err := svc.Resolve(r)
		if err != nil {
			return "", "", err
		}
		return p.UserID, p.Email, nil
	})
}

// newObjectStore builds the store selected by STORAGE_DRIVER. The disk
// driver also returns a handler serving the stored files under /media/.
func newObjectStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.ObjectStore, http.Handler, func(), error) {
	noop := func() {}

	switch cfg.StorageDriver {
	case config.StorageMinio:
		s, err := storage.NewMinioStore(ctx, log, cfg.StorageEndpoint, cfg.StorageAccessKey,
			cfg.StorageSecretKey, cfg.StorageBucket, cfg.StorageUseSSL)
		if err != nil {
			return nil, nil, noop, err
		}
		return s, nil, noop, nil

	case config.StorageGCS:
		var opts []option.ClientOption
		if cfg.StorageCredsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.StorageCredsFile))
		}
		s, err := storage.NewGCSStore(ctx, cfg.StorageBucket, opts...)
		if err != nil {
			return nil, nil, noop, err
		}
		return s, nil, func() {
			if err := s.Close(); err != nil {
				log.Warn().Err(err).Msg("close gcs client")
			}
		}, nil

	case config.StorageDisk:
		s, err := storage.NewDiskStore(cfg.StorageDiskDir, cfg.StorageBucket)
		if err != nil {
			return nil, nil, noop, err
		}
		return s, http.FileServer(http.Dir(s.Root())), noop, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
