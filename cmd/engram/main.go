package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/pkg/agent"
	"github.com/engramhq/engram/pkg/api"
	"github.com/engramhq/engram/pkg/api/events"
	"github.com/engramhq/engram/pkg/api/handlers"
	"github.com/engramhq/engram/pkg/logger"
	"github.com/engramhq/engram/pkg/metrics"
	"github.com/engramhq/engram/pkg/snapshot"
	"github.com/engramhq/engram/pkg/telemetry/tracing"
	"github.com/engramhq/engram/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	agentName  = flag.String("agent-name", "", "Override agent name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting Engram",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"agent", cfg.Agent.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Tracing
	shutdownTracing, err := tracing.Init(ctx, &cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Snapshot backend
	var snaps snapshot.Store
	switch cfg.Snapshot.Type {
	case "badger":
		snaps, err = snapshot.NewBadgerStore(&snapshot.BadgerConfig{
			Path:              cfg.Snapshot.Path,
			SyncWrites:        cfg.Snapshot.Badger.SyncWrites,
			ValueLogFileSize:  cfg.Snapshot.Badger.ValueLogFileSize,
			NumVersionsToKeep: cfg.Snapshot.Badger.NumVersionsToKeep,
		})
		if err != nil {
			log.Error("Failed to open Badger snapshot store", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized Badger snapshot store", "path", cfg.Snapshot.Path)
	default:
		snaps, err = snapshot.NewFileStore(cfg.Snapshot.Path)
		if err != nil {
			log.Error("Failed to open file snapshot store", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized file snapshot store", "path", cfg.Snapshot.Path)
	}

	// Metrics
	metricsManager := metrics.NewManager()
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metricsManager.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Session manager
	manager := agent.NewManager(cfg, log, metricsManager, snaps)

	// Event broadcaster and websocket stream
	broadcaster := events.NewBroadcaster()

	// Keep the session gauges current from lifecycle events.
	go func() {
		ch := broadcaster.Subscribe(16)
		defer broadcaster.Unsubscribe(ch)
		for event := range ch {
			switch event.Type {
			case "session.created", "session.removed":
				metricsManager.SetSessionsLive(manager.Len())
				if event.Type == "session.removed" {
					if payload, ok := event.Payload.(map[string]any); ok {
						if id, ok := payload["session_id"].(string); ok {
							metricsManager.DropSession(id)
						}
					}
				}
			case "directive.processed":
				if payload, ok := event.Payload.(map[string]any); ok {
					if id, ok := payload["session_id"].(string); ok {
						if sess, err := manager.Get(id); err == nil {
							metricsManager.SetMemoryRecords(id, sess.Memory().Len())
						}
					}
				}
			}
		}
	}()

	sessionHandler := handlers.NewSessionHandler(manager, broadcaster, log)
	apiHandlers := &api.Handlers{
		Health:    handlers.NewHealthHandler(manager),
		Session:   sessionHandler,
		Directive: handlers.NewDirectiveHandler(manager, sessionHandler, broadcaster, log),
		Memory:    handlers.NewMemoryHandler(sessionHandler, log),
		Mood:      handlers.NewMoodHandler(sessionHandler),
		Causal:    handlers.NewCausalHandler(sessionHandler),
		Snapshot:  handlers.NewSnapshotHandler(manager, broadcaster, log),
		Metrics:   metricsManager,
	}

	var wsHandler *handlers.WebSocketHandler
	if cfg.Server.WebSocket.Enabled {
		wsHandler = handlers.NewWebSocketHandler(log, broadcaster, metricsManager, handlers.WebSocketConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			ReadBufferSize:  cfg.Server.WebSocket.ReadBufferSize,
			WriteBufferSize: cfg.Server.WebSocket.WriteBufferSize,
			SendBuffer:      cfg.Server.WebSocket.SendQueueSize,
			PingInterval:    cfg.Server.WebSocket.PingInterval,
		})
		apiHandlers.WebSocket = wsHandler
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Hot reload: adjust the log level when the config file changes.
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath, config.NewLoader())
		if err != nil {
			log.Warn("Config watcher unavailable", "error", err)
		} else {
			watcher.OnChange(func(updated *config.Config) {
				log.Info("Configuration reloaded", "log_level", updated.Log.Level)
				logger.SetLevel(logger.ParseLevel(updated.Log.Level))
			})
			go func() {
				if err := watcher.Watch(ctx); err != nil {
					log.Warn("Config watcher stopped", "error", err)
				}
			}()
			defer watcher.Stop()
		}
	}

	log.Info("Engram is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
	)
	log.Info("Press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	if wsHandler != nil {
		wsHandler.Close()
	}
	broadcaster.Close()

	// Persist every live session before closing the snapshot store.
	log.Info("Saving sessions")
	if err := manager.Close(shutdownCtx); err != nil {
		log.Error("Error during session shutdown", "error", err)
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down metrics server", "error", err)
		}
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	log.Info("Engram stopped gracefully")
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *agentName != "" {
		overrides["agent.name"] = *agentName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Engram - Conversational Agent Core\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("Engram - a scripted conversational agent core with persistent memory\n\n")
	fmt.Printf("Usage: engram [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  engram                                    # Run with default config\n")
	fmt.Printf("  engram -config config.yaml                # Use specific config file\n")
	fmt.Printf("  engram -port 9090 -log-level debug        # Override specific options\n")
	fmt.Printf("  engram -version                           # Print version info\n")
}
