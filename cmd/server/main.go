/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the capacity engine server, or runs a one-off
  allocation plan from the command line.

COMMANDS:
  serve     Start the HTTP API (default config: capacity.yaml)
  allocate  Compute a YAML plan and print the day assignments

STARTUP SEQUENCE (serve):
  1. Load configuration (file, then flags)
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Seed the default calendar
  5. Start the horizon scheduler
  6. Start server with graceful shutdown

SERVE FLAGS:
  --config   YAML config file (default: capacity.yaml, optional)
  --port     HTTP server port (overrides config)
  --db       SQLite database path (overrides config)
             Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./capacity-engine serve --db=./data/capacity.db

  # Run with in-memory database on a different port
  ./capacity-engine serve --db=":memory:" --port=3000

  # Compute a plan without a server
  ./capacity-engine allocate -f plan.yaml

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration file
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/config"
	"github.com/warp/capacity-engine/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "capacity-engine",
		Short:         "Calendar-aware capacity scheduling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newAllocateCmd(),
	)

	return root
}

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
		dbPath     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("db") {
				cfg.DatabasePath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "capacity.yaml", "YAML config file")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", config.DefaultDatabasePath, "SQLite database path")

	return cmd
}

func serve(cfg *config.Config) error {
	// Initialize store
	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store)
	handler.Service.Allocator.Horizon = cfg.HorizonDays

	// Seed the default calendar
	if created, err := handler.SeedCalendar(context.Background(), *cfg.DefaultCalendar); err != nil {
		log.Printf("Warning: Failed to seed default calendar: %v", err)
	} else if created {
		log.Printf("Seeded calendar %q", cfg.DefaultCalendar.ID)
	}

	// Start horizon scheduler
	scheduler := api.NewHorizonScheduler(handler.Service)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.HorizonDays = cfg.HorizonDays
	scheduler.Enabled = cfg.IsSchedulerEnabled()
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errc := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		log.Printf("API available at http://localhost:%d/api", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	}

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}
