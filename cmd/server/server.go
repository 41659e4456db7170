package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paularlott/cli"

	"subnetd/internal/api"
	"subnetd/internal/config"
	"subnetd/internal/log"
	"subnetd/internal/mcp"
	"subnetd/internal/provision"
	"subnetd/internal/registry"
	"subnetd/internal/storage"
	"subnetd/internal/worker"
)

// resolveProvisioner picks the provisioner backend from the registry,
// falling back to the built-in local provisioner
func resolveProvisioner(cfg *config.Config) provision.Provisioner {
	reg := registry.GetRegistry()

	if cfg.ProvisionerPlugin != "" {
		if err := registry.LoadPlugin(cfg.ProvisionerPlugin); err != nil {
			log.Warn("Failed to load provisioner plugin, continuing without it", "path", cfg.ProvisionerPlugin, "error", err)
		}
	}

	if factory, ok := reg.GetProvisioner(cfg.Provisioner); ok {
		instance, err := factory(map[string]interface{}{
			"data_dir": cfg.DataDir,
		})
		if err != nil {
			log.Warn("Failed to create provisioner, falling back to local", "provisioner", cfg.Provisioner, "error", err)
		} else if p, ok := instance.(provision.Provisioner); ok {
			log.Info("Using registered provisioner", "provisioner", cfg.Provisioner)
			return p
		} else {
			log.Warn("Registered provisioner has wrong type, falling back to local", "provisioner", cfg.Provisioner, "type", fmt.Sprintf("%T", instance))
		}
	} else if cfg.Provisioner != "" && cfg.Provisioner != "local" {
		log.Warn("Provisioner not registered, falling back to local", "provisioner", cfg.Provisioner)
	}

	log.Info("Using built-in local provisioner")
	return provision.Local{}
}

// ServerConfig holds everything needed to run the server
type ServerConfig struct {
	Config      *config.Config
	Store       storage.Storage
	Exports     storage.ExportStore
	Pool        *worker.Pool
	Republisher *worker.Republisher
	MCPServer   *mcp.Server
	APIHandler  *api.Handler
}

// RunServer starts the subnetd server with the given configuration
func RunServer(cfg *ServerConfig) error {
	// Setup HTTP routes
	mux := http.NewServeMux()

	// API routes
	cfg.APIHandler.RegisterRoutes(mux)

	// MCP endpoint
	mux.HandleFunc("/mcp", cfg.MCPServer.GetHTTPHandler())

	// Apply middleware
	var handler http.Handler = mux
	if cfg.Config.IsAPIAuthEnabled() {
		handler = api.AuthMiddleware(cfg.Config.BearerToken, cfg.Config.TokenHash, handler)
	}
	handler = api.SecurityHeadersMiddleware(handler)

	// Start server
	server := &http.Server{
		Addr:    cfg.Config.ListenAddr,
		Handler: handler,
	}

	// Handle shutdown gracefully
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down server...")
		server.Close()
	}()

	// Log startup info
	log.Info("Starting subnetd server", "addr", cfg.Config.ListenAddr)
	log.Info("API available", "url", "http://localhost"+cfg.Config.ListenAddr+"/api/")
	log.Info("MCP available", "url", "http://localhost"+cfg.Config.ListenAddr+"/mcp")
	if cfg.Config.IsAPIAuthEnabled() {
		log.Info("API authentication enabled")
	}
	cfg.MCPServer.LogStartup()

	// Start serving
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server error", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the subnetd server",
		Description: "Start the HTTP server with API and MCP endpoints",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg := config.Load(config.FromCommand(cmd))

			log.Info("Configuration loaded", "source", cfg.String(), "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr)

			// Initialize storage
			store, err := storage.NewStorage(cfg.StorageBackend, cfg.DataDir)
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()
			log.Info("Storage initialized", "backend", cfg.StorageBackend, "path", cfg.DataDir)

			exports, ok := store.(storage.ExportStore)
			if !ok {
				return fmt.Errorf("storage backend %s does not support export lists", cfg.StorageBackend)
			}

			// Provisioning fan-out pool
			pool := worker.NewPool(cfg.ProvisionWorkers)
			pool.Start()
			defer pool.Stop()

			provisioner := resolveProvisioner(cfg)

			// Create API handler
			apiHandler := api.NewHandler(store, exports, provisioner, pool)

			// Create MCP server
			mcpServer := mcp.NewServer(store, exports, cfg.BearerToken, cfg.TokenHash)

			// Republish scheduler
			var republisher *worker.Republisher
			if cfg.RepublishEnabled {
				republisher, err = worker.NewRepublisher(cfg.RepublishSchedule, store, exports)
				if err != nil {
					log.Error("Failed to initialize republish scheduler", "error", err)
					return err
				}
				republisher.Start()
				defer republisher.Stop()
				log.Info("Republish scheduler enabled", "schedule", cfg.RepublishSchedule)
			}

			// Build server config
			serverConfig := &ServerConfig{
				Config:      cfg,
				Store:       store,
				Exports:     exports,
				Pool:        pool,
				Republisher: republisher,
				MCPServer:   mcpServer,
				APIHandler:  apiHandler,
			}

			return RunServer(serverConfig)
		},
	}
}
