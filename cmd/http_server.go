package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/emspay-gateway/internal"
	"github.com/frahmantamala/emspay-gateway/internal/core/events"
	"github.com/frahmantamala/emspay-gateway/internal/hosted"
	"github.com/frahmantamala/emspay-gateway/internal/locale"
	"github.com/frahmantamala/emspay-gateway/internal/metrics"
	"github.com/frahmantamala/emspay-gateway/internal/order"
	orderPostgres "github.com/frahmantamala/emspay-gateway/internal/order/postgres"
	"github.com/frahmantamala/emspay-gateway/internal/payment"
	"github.com/frahmantamala/emspay-gateway/internal/paymentgateway"
	"github.com/frahmantamala/emspay-gateway/internal/transport"
	"github.com/frahmantamala/emspay-gateway/internal/transport/rest"
	"github.com/frahmantamala/emspay-gateway/internal/transport/swagger"
	"github.com/frahmantamala/emspay-gateway/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server that serves the checkout and receipt endpoints`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config         *internal.Config
	DB             *sqlx.DB
	GormDB         *gorm.DB
	Router         *chi.Mux
	EventBus       *events.EventBus
	Metrics        *metrics.Metrics
	PaymentHandler *payment.Handler
	HealthChecks   []rest.HealthCheck
	Logger         *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, deps.PaymentHandler, deps.Metrics, deps.Config.Server, deps.Logger, deps.HealthChecks...)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server",
		"address", addr,
		"gateway", deps.Config.Gateway.ID,
		"environment", deps.Config.Gateway.Environment)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Wait(ctx); err != nil {
			deps.Logger.Warn("event handlers still running at shutdown", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	// fail at boot rather than serve a broken document
	ctx, cancel := internal.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := swagger.LoadSpec(ctx, config.Server.OpenAPISpec); err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	methods, err := payment.ParseMethods(config.Checkout.EnabledMethods)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid checkout.enabled_methods: %w", err)
	}

	eventBus := events.NewEventBus(lg)
	payment.NewEventHandler(lg).RegisterEventHandlers(eventBus)

	var collectors *metrics.Metrics
	if config.Observability.Metrics.Enabled {
		collectors = metrics.New(config.Observability.Metrics.Namespace)
		collectors.RegisterEventHandlers(eventBus)
	}

	orderService := order.NewService(orderPostgres.NewOrderRepository(gormDB), lg)
	receiptLinks := payment.NewReceiptLinks(config.Checkout.BaseURL, config.Checkout.ReceiptSecret, config.Checkout.ReceiptTokenTTL)
	snapshotter := payment.NewSnapshotter(orderService, config.Checkout.DefaultTimezone, lg)

	registry := hosted.NewRegistry()
	if len(config.Checkout.ExtraFields) > 0 {
		registry.Register(config.Gateway.ID, hosted.StaticFields("extra_fields", config.Checkout.ExtraFields))
	}
	builder := hosted.NewBuilder(locale.NewResolver(), registry, lg)
	signer := paymentgateway.NewConnectSigner(config.Gateway, lg)

	gateway := payment.NewGateway(orderService, snapshotter, receiptLinks, eventBus, lg)
	receipts := payment.NewReceiptService(orderService, receiptLinks, builder, signer, config.Gateway, eventBus, lg)
	paymentHandler := payment.NewHandler(transport.NewBaseHandler(lg), gateway, receipts, methods)

	return &Dependencies{
		Config:         config,
		DB:             db,
		GormDB:         gormDB,
		Router:         chi.NewRouter(),
		EventBus:       eventBus,
		Metrics:        collectors,
		PaymentHandler: paymentHandler,
		HealthChecks: []rest.HealthCheck{
			{Name: "ems", Message: "payment gateway not configured", Run: signer.Check},
		},
		Logger: lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see the same connections.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
}
