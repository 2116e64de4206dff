package main

import (
	"context"
	"embed"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apilatam/liquidnode/pkg/log"
	"github.com/apilatam/liquidnode/pkg/rpcclient"
)

//go:embed config/migrations/*/*.sql
var embedMigrations embed.FS

func main() {
	logger := NewLoggerIPFS("root")
	if len(os.Args) > 1 {
		// If a CLI command is provided, run it and exit
		runCli(logger, os.Args[1])
		return
	}

	config, err := LoadConfig(logger)
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	db, err := ConnectToDB(config.dbConf)
	if err != nil {
		logger.Fatal("Failed to setup database", "error", err)
	}

	callStore := NewCallStore(db, logger)

	// Initialize Prometheus metrics
	metrics := NewMetrics()

	hub := NewEventHub(logger)

	session := NewSession(config.node, logger)
	session.SetObserver(hub)
	session.SetCallObserver(rpcclient.CombineObservers(callStore, metrics))

	bootstrapSession(session, logger)

	gateway := NewGateway(session, config.node, callStore, metrics, hub, logger)

	gatewayServer := &http.Server{
		Addr:    config.listenAddr,
		Handler: gateway.Router(),
	}

	metricsEndpoint := "/metrics"
	// Set up a separate mux for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.Handler())

	// Start metrics server on a separate port
	metricsServer := &http.Server{
		Addr:    config.metricsAddr,
		Handler: metricsMux,
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	go hub.Run(rootCtx)

	// Start metrics monitoring
	go metrics.RecordSessionPeriodically(rootCtx, session, 15*time.Second, logger)

	go func() {
		logger.Info("Prometheus metrics available", "listenAddr", config.metricsAddr, "endpoint", metricsEndpoint)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failure", "error", err)
		}
	}()

	// Start the main HTTP server.
	go func() {
		logger.Info("gateway available", "listenAddr", config.listenAddr)
		if err := gatewayServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("gateway server failure", "error", err)
		}
	}()

	// Wait for shutdown signal.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancelRoot()

	// Shutdown metrics server
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down metrics server", "error", err)
	}

	// Shutdown gateway server
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := gatewayServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down gateway server", "error", err)
	}

	logger.Info("shutdown complete")
}

// bootstrapSession eagerly creates the default Service so the node is up
// before the first request. Best effort: a node that cannot be reached yet
// is logged and left for the lazy path to retry per request.
func bootstrapSession(session *Session, logger log.Logger) {
	if _, err := session.ActiveConnection(); err != nil {
		logger.Warn("default service bootstrap failed, will retry on demand", "error", err)
	}
}

func runCli(logger log.Logger, name string) {
	switch name {
	case "export-calls":
		runExportCallsCli(logger)
	default:
		logger.Fatal("Unknown CLI command", "name", name)
	}
}
