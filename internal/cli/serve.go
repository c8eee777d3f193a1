package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/noah-isme/wellness-admin-console/api/swagger"
	"github.com/noah-isme/wellness-admin-console/internal/auth"
	"github.com/noah-isme/wellness-admin-console/internal/handler"
	"github.com/noah-isme/wellness-admin-console/internal/service"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	"github.com/noah-isme/wellness-admin-console/pkg/config"
	"github.com/noah-isme/wellness-admin-console/pkg/logger"
	"github.com/noah-isme/wellness-admin-console/pkg/storage"
)

const housekeepingInterval = time.Minute

type server struct {
	http    *http.Server
	views   *service.ViewService
	exports *service.ExportService
	logger  *zap.Logger
}

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Port = port
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			logr, err := logger.New(a.cfg.Env, a.cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			if a.cfg.Env == config.EnvProduction {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := buildServer(a.cfg, logr)
			if err != nil {
				return err
			}
			return srv.run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides PORT)")
	return cmd
}

func buildServer(cfg *config.Config, logr *zap.Logger) (*server, error) {
	metrics := service.NewMetricsService()

	client, err := apiclient.New(apiclient.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
		Tokens:  tokenSource(cfg.Upstream),
		Logger:  logr,
		Metrics: metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("platform API: %w", err)
	}

	views := service.NewViewService(client, service.ViewConfig{
		DefaultLimit:   cfg.Listing.DefaultLimit,
		SearchDelay:    cfg.Listing.SearchDebounce,
		DisableFencing: !cfg.Listing.RequestFencing,
		TTL:            cfg.Console.ViewTTL,
	}, metrics, logr)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exports := service.NewExportService(store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr)

	var verifier *auth.Verifier
	if cfg.Console.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.Console.JWTSecret, cfg.Console.JWTIssuer)
	} else {
		logr.Warn("CONSOLE_JWT_SECRET is empty; console routes are unauthenticated")
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Logger:         logr,
		Metrics:        metrics,
		Verifier:       verifier,
		Views:          views,
		Exports:        exports,
	})

	return &server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		views:   views,
		exports: exports,
		logger:  logr,
	}, nil
}

// run serves until ctx is cancelled, then drains connections and unmounts
// every view.
func (s *server) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.housekeeping(ctx, housekeepingInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		s.views.Shutdown()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	err := s.http.Shutdown(shutdownCtx)
	s.views.Shutdown()
	return err
}

func (s *server) housekeeping(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *server) sweep() {
	s.views.Sweep()
	removed, err := s.exports.Cleanup(0)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
	}
}
