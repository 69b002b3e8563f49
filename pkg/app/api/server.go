// Package api implements app.Runner for the launchpad API server process.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tokenforge/launchpad-middleware/pkg/app/httpserver"
	"github.com/tokenforge/launchpad-middleware/pkg/auth"
	"github.com/tokenforge/launchpad-middleware/pkg/config"
	"github.com/tokenforge/launchpad-middleware/pkg/ethereum"
	launchservice "github.com/tokenforge/launchpad-middleware/pkg/launch/service"
	"github.com/tokenforge/launchpad-middleware/pkg/pgutil"
	reconcilerpkg "github.com/tokenforge/launchpad-middleware/pkg/reconciler"
	"github.com/tokenforge/launchpad-middleware/pkg/recordstore"
)

const (
	defaultRequestTimeout  = 60 * time.Second
	defaultHTTPReadTimeout = 15 * time.Second
	defaultHTTPIdleTimeout = 60 * time.Second
)

// Server holds cfg to init the api server.
type Server struct {
	cfg *config.Config
}

// NewServer initializes new api server.
func NewServer(cfg *config.Config) *Server {
	return &Server{cfg: cfg}
}

func (s *Server) Run() error {
	if s.cfg == nil {
		return fmt.Errorf("api server config is nil")
	}
	cfg := s.cfg

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting launchpad API server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = db.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	store := recordstore.NewStore(db)

	clients, closeClients, err := s.openNetworkClients(logger)
	if err != nil {
		return err
	}
	defer closeClients()

	signers, err := ethereum.NewProvider(cfg.Wallet.DeployerPrivateKey, clients)
	if err != nil {
		return err
	}

	artifacts, err := ethereum.LoadArtifacts(cfg.Artifacts)
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}
	deployer := ethereum.NewDeployer(clients, artifacts, logger)

	rec := reconcilerpkg.New(store, deployer, logger)
	s.runInitialReconcile(ctx, rec, logger)

	stopReconcile := s.startPeriodicReconcile(rec, logger)
	// We will call stopReconcile explicitly after ServeAndWait returns for deterministic shutdown order.
	// Keep this defer as a safety net.
	defer stopReconcile()

	svc := launchservice.NewService(store, signers, deployer, logger)
	router := s.setupRouter(svc, logger)

	// No WriteTimeout: the status stream holds websocket connections open
	// and enforces its own per-message write deadlines.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: defaultHTTPReadTimeout,
		IdleTimeout: defaultHTTPIdleTimeout,
	}

	err = httpserver.ServeAndWait(ctx, logger, httpServer, cfg.Shutdown.Timeout)

	// Stop background work before deferred DB closes kick in.
	stopReconcile()

	return err
}

func (s *Server) openNetworkClients(logger *zap.Logger) (map[string]*ethereum.Client, func(), error) {
	clients := make(map[string]*ethereum.Client, len(s.cfg.Networks))
	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	for id, netCfg := range s.cfg.Networks {
		client, err := ethereum.NewClient(id, netCfg, logger)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("connect network %s: %w", id, err)
		}
		clients[id] = client
	}

	return clients, closeAll, nil
}

func (s *Server) runInitialReconcile(
	ctx context.Context,
	reconciler *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) {
	if s.cfg.Reconciliation.InitialTimeout <= 0 {
		return
	}

	logger.Info("Running initial record reconciliation",
		zap.Duration("timeout", s.cfg.Reconciliation.InitialTimeout),
	)

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.Reconciliation.InitialTimeout)
	defer cancel()

	if err := reconciler.ReconcileAll(startupCtx); err != nil {
		logger.Warn("Initial reconciliation failed (will retry periodically)", zap.Error(err))
		return
	}

	logger.Info("Initial record reconciliation completed")
}

func (s *Server) startPeriodicReconcile(
	reconciler *reconcilerpkg.Reconciler,
	logger *zap.Logger,
) func() {
	if s.cfg.Reconciliation.Interval <= 0 {
		return func() {}
	}

	reconciler.StartPeriodicReconciliation(s.cfg.Reconciliation.Interval)

	// Return stopper for deterministic shutdown ordering.
	return func() { reconciler.Stop() }
}

func (s *Server) setupRouter(svc *launchservice.Service, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.cfg.Monitoring.Enabled {
		r.Handle("/metrics", promhttp.Handler())
		logger.Info("Metrics enabled", zap.String("path", "/metrics"))
	}

	validator := auth.NewJWTValidator(s.cfg.JWKS.URL, s.cfg.JWKS.Issuer)
	if !validator.IsConfigured() {
		logger.Warn("JWKS validation not configured; requests run as anonymous creator")
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(defaultRequestTimeout))
		r.Use(auth.Middleware(validator))
		launchservice.RegisterRoutes(r, svc, logger)
	})

	return r
}
