// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "pos-service/docs"
	"pos-service/internal/config"
	"pos-service/internal/database"
	"pos-service/internal/discovery"
	"pos-service/internal/discovery/bluetooth"
	"pos-service/internal/discovery/serial"
	"pos-service/internal/discovery/usb"
	"pos-service/internal/driver/escpos"
	"pos-service/internal/handler"
	"pos-service/internal/protocol"
	"pos-service/internal/receipt"
	"pos-service/internal/repository"
	"pos-service/internal/routes"
	"pos-service/internal/service"
	"pos-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Printer link
	bluetoothHost *protocol.BluetoothHost
	transport     *escpos.ThermalDriver
	composer      *receipt.Composer
	htmlRenderer  *receipt.HTMLRenderer

	// Services
	printerService   *service.PrinterService
	discoveryService *service.DiscoveryService
	productService   *service.ProductService
	checkoutService  *service.CheckoutService
	printJobService  *service.PrintJobService

	// Repositories
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	printJobRepo    repository.PrintJobRepository
	pairingRepo     repository.PairingRepository

	// Events
	eventBus  *handler.EventBus
	wsHandler *handler.WebSocketHandler

	stop chan struct{}
}

// @title POS Service API
// @version 1.0.0
// @description Bakery point-of-sale backend with ESC/POS thermal receipt printing

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8084
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "pos-service")
	serviceLogger.LogServiceStart(cfg.App.Version,
		zap.String("environment", cfg.App.Environment),
		zap.String("connection_type", cfg.Printer.ConnectionType),
		zap.Bool("database_enabled", cfg.Database.Enabled),
		zap.String("pairing_persistence", cfg.Pairing.Persistence),
	)

	app := &Application{
		config: cfg,
		logger: logger,
		stop:   make(chan struct{}),
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initializeRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initializePrinter(); err != nil {
		return nil, fmt.Errorf("failed to initialize printer: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase connects to postgres and runs migrations when enabled
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, using in-memory storage")
		return nil
	}

	db, err := database.NewConnection(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.MigrateOnBoot {
		migrator := database.NewMigrator(db, app.logger)
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() error {
	if app.database != nil {
		app.productRepo = repository.NewProductRepository(app.database, app.logger)
		app.transactionRepo = repository.NewTransactionRepository(app.database, app.logger)
		app.printJobRepo = repository.NewPrintJobRepository(app.database, app.logger)
	} else {
		app.productRepo = repository.NewMemoryProductRepository()
		app.transactionRepo = repository.NewMemoryTransactionRepository()
		app.printJobRepo = repository.NewMemoryPrintJobRepository()
	}

	switch app.config.Pairing.Persistence {
	case config.PairingBolt:
		pairing, err := repository.NewBoltPairingRepository(app.config.Pairing.BoltPath)
		if err != nil {
			return fmt.Errorf("failed to open pairing store: %w", err)
		}
		app.pairingRepo = pairing
	default:
		app.pairingRepo = repository.NewMemoryPairingRepository()
	}

	app.logger.Info("Repositories initialized successfully",
		zap.Bool("persistent_storage", app.database != nil),
		zap.Bool("persistent_pairing", app.pairingRepo.Persistent()),
	)
	return nil
}

// initializePrinter builds the receipt composer and the paced printer link
func (app *Application) initializePrinter() error {
	cfg := app.config
	loc := cfg.Location()

	app.composer = receipt.NewComposer(
		cfg.StoreProfile(),
		receipt.NewLineFormatter(cfg.Receipt.Width),
		receipt.WithTimestampLayout(cfg.Receipt.TimestampLayout),
		receipt.WithLocation(loc),
	)

	renderer, err := receipt.NewHTMLRenderer(cfg.Receipt.TimestampLayout, loc)
	if err != nil {
		return err
	}
	app.htmlRenderer = renderer

	app.bluetoothHost = protocol.NewBluetoothHost(app.logger)
	writer := protocol.NewChunkedWriter(cfg.Printer.ChunkSize, cfg.Printer.ChunkDelay, app.logger)
	app.transport = escpos.NewThermalDriver(cfg.LinkConfig(), app.bluetoothHost, writer, app.logger)

	app.logger.Info("Printer link initialized",
		zap.String("connection_type", cfg.Printer.ConnectionType),
		zap.Int("chunk_size", cfg.Printer.ChunkSize),
		zap.Duration("chunk_delay", cfg.Printer.ChunkDelay),
		zap.Int("width", cfg.Receipt.Width),
	)
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	cfg := app.config

	app.eventBus = handler.NewEventBus(app.logger)
	app.transport.SetEventHandler(handler.NewLinkEventHandler(app.eventBus, app.logger))

	app.printerService = service.NewPrinterService(
		app.transport,
		app.composer,
		app.pairingRepo,
		app.printJobRepo,
		app.logger,
	)
	app.printerService.SetEventListener(app.eventBus.Publish)

	scannerManager := discovery.NewScannerManager(app.logger)
	linkCfg := cfg.LinkConfig()
	if btScanner, err := bluetooth.NewScanner(app.bluetoothHost, &linkCfg.Bluetooth, app.logger); err != nil {
		app.logger.Warn("Bluetooth scanner disabled", zap.Error(err))
	} else {
		scannerManager.RegisterScanner(btScanner)
	}
	scannerManager.RegisterScanner(serial.NewScanner(cfg.Printer.Serial.PortPattern, app.logger))
	scannerManager.RegisterScanner(usb.NewScanner(cfg.Printer.USB.Timeout, app.logger))

	app.discoveryService = service.NewDiscoveryService(scannerManager, cfg.Printer.ScanTimeout, app.logger)
	app.productService = service.NewProductService(app.productRepo, app.logger)
	app.checkoutService = service.NewCheckoutService(
		app.transactionRepo,
		app.productRepo,
		app.printerService,
		cfg.Location(),
		app.logger,
	)
	app.printJobService = service.NewPrintJobService(app.printJobRepo, app.logger)

	app.logger.Info("Services initialized successfully",
		zap.Bool("printer_supported", app.printerService.IsSupported()),
	)
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	receiptHandler := handler.NewReceiptHandler(app.htmlRenderer, app.config.StoreProfile(), app.logger)
	app.wsHandler = handler.NewWebSocketHandler(app.printerService, app.eventBus, app.config.Security.AllowedOrigins, app.logger)

	routerManager := routes.NewRouter(app.config, app.logger, &routes.Handlers{
		Health:      handler.NewHealthHandler(app.database, app.printerService, app.wsHandler, app.config, app.logger),
		Printer:     handler.NewPrinterHandler(app.printerService, app.discoveryService, app.logger),
		Receipt:     receiptHandler,
		Product:     handler.NewProductHandler(app.productService, app.logger),
		Transaction: handler.NewTransactionHandler(app.checkoutService, receiptHandler, app.logger),
		Job:         handler.NewJobHandler(app.printJobService, app.logger),
		WebSocket:   app.wsHandler,
	})

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
	return nil
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	go app.eventBus.Start()
	go app.wsHandler.Run()

	if app.config.Printer.AutoConnectOnStart {
		go app.autoConnect()
	}

	go app.startStatusMonitor()

	if app.config.Printer.JobRetention > 0 {
		go app.startCleanupService()
	}

	app.logger.Info("Background services started")
}

// autoConnect silently reconnects to the last used printer
func (app *Application) autoConnect() {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.Printer.ConnectTimeout+app.config.Printer.ScanTimeout)
	defer cancel()

	if app.printerService.AutoConnect(ctx) {
		app.logger.Info("Reconnected to last used printer")
		return
	}
	app.logger.Info("No printer reconnected at startup")
}

// startStatusMonitor detects printer links dropped by the peripheral
func (app *Application) startStatusMonitor() {
	ticker := time.NewTicker(app.config.Printer.StatusInterval)
	defer ticker.Stop()

	app.logger.Info("Printer status monitor started",
		zap.Duration("interval", app.config.Printer.StatusInterval),
	)

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			app.printerService.CheckLink(ctx)
			cancel()
		case <-app.stop:
			return
		}
	}
}

// startCleanupService removes print jobs past the retention period
func (app *Application) startCleanupService() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	app.logger.Info("Print job cleanup started",
		zap.Duration("retention", app.config.Printer.JobRetention),
	)

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			if _, err := app.printJobService.Cleanup(ctx, app.config.Printer.JobRetention); err != nil {
				app.logger.Error("Failed to cleanup old print jobs", zap.Error(err))
			}
			cancel()
		case <-app.stop:
			return
		}
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "pos-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	close(app.stop)

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.wsHandler.Close()
	app.eventBus.Stop()

	// Waits for an in-flight print before closing the link
	app.printerService.Disconnect(ctx)
	if err := app.bluetoothHost.Stop(); err != nil {
		app.logger.Warn("Bluetooth host stop error", zap.Error(err))
	}

	if closer, ok := app.pairingRepo.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("Pairing store close error", zap.Error(err))
		}
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()

	app.waitForShutdown()

	return nil
}
