package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/internal/logger"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/api"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/config"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/metrics"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/store"
)

var pidFile string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the epmon server",
	Long: `Start the epmon server with the specified configuration.

The server runs in the foreground and stops cleanly on SIGINT or SIGTERM,
so it can be managed by systemd or a container runtime.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/epmon/config.yaml.

Examples:
  # Start with default config
  epmon start

  # Start with custom config file
  epmon start --config /etc/epmon/config.yaml

  # Start with environment variable overrides
  EPMON_LOGGING_LEVEL=DEBUG epmon start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (optional)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("epmon - Endpoint monitoring platform")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics (if enabled)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics collection enabled", "path", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Initialize the platform store
	st, err := store.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize platform store: %w", err)
	}
	defer func() { _ = st.Close() }()

	hasher := auth.NewHasher()

	// Ensure admin user exists (generates random password on first run)
	adminPassword, err := st.EnsureAdminUser(ctx, cfg.Admin.Username, cfg.Admin.Email, hasher.Hash, auth.GenerateRandomPassword)
	if err != nil {
		return fmt.Errorf("failed to ensure admin user: %w", err)
	}
	if adminPassword != "" {
		logger.Info("Admin user created", "username", cfg.Admin.Username)
		fmt.Printf("\n*** IMPORTANT: Admin user created with password: %s ***\n", adminPassword)
		fmt.Println("Please save this password. It will not be shown again.")
		fmt.Println()
	}

	// Build the authentication provider chain from configuration
	providers, err := auth.BuildProviders(cfg.Auth.Providers, auth.Deps{
		Store:  st,
		Hasher: hasher,
	})
	if err != nil {
		return fmt.Errorf("failed to build authentication providers: %w", err)
	}
	for _, p := range providers {
		logger.Info("Authentication provider registered", "provider", p.Name(), "password_based", p.PasswordBased())
	}

	authMetrics := metrics.NewAuthMetrics()
	authenticator := auth.NewAuthenticator(providers, cfg.Auth.FallbackChainEnabled(),
		auth.WithAuditSink(st),
		auth.WithMetrics(authMetrics),
	)
	reconciler := auth.NewReconciler(st)

	// Create the API server
	apiServer, err := api.NewServer(cfg.API, api.Deps{
		Store:         st,
		Authenticator: authenticator,
		Reconciler:    reconciler,
		Hasher:        hasher,
		AuthMetrics:   authMetrics,
		HTTPMetrics:   metrics.NewHTTPMetrics(),
	})
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	logger.Info("API server configured", "port", apiServer.Port())

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	// Start the server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
	}

	return nil
}

// getConfigSource describes where configuration was loaded from for logging.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
