package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"invclean/internal/config"
	"invclean/internal/repository/sqlite"
	"invclean/internal/service"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workers    int
	noHistory  bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "invclean",
	Short: "Clean and audit network inventory exports",
	Long: `invclean validates and normalizes network inventory rows (IP, MAC,
hostname, FQDN, owner, site, device type), applies curated overrides, and
reports every anomaly per source row.

Inputs: CSV/TSV tables, nmap XML, Ansible YAML inventories, JSON row arrays,
or a live nmap scan. Outputs: a cleaned table, an anomaly report, and an
optional Ansible inventory grouped by device type.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: search $INVCLEAN_CONFIG, ./invclean.yaml, ~/.config/invclean)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Row worker count (default: from config, else number of CPUs)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not record runs in the history database")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config, or searches the default locations
func loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if configPath != "" {
		cfg, path, err = config.LoadFromPath(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}
	if workers > 0 {
		cfg.Processing.Workers = workers
	}
	return cfg, path, nil
}

// app holds everything a command needs to run the cleaning service
type app struct {
	cfg      *config.Config
	repo     *sqlite.Repository
	eventBus *service.EventBus
	svc      *service.CleaningService
}

// newApp wires config, history database, event bus and service
func newApp(withHistory bool) (*app, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if path != "" {
		logger.Debug("config loaded", zap.String("path", path))
	}

	a := &app{cfg: cfg, eventBus: service.NewEventBus()}

	var repo *sqlite.Repository
	if withHistory && cfg.StoreEnabled() {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		repo, err = sqlite.New(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.repo = repo
		logger.Debug("database opened", zap.String("path", cfg.Database.Path))
	}

	// A nil *sqlite.Repository must not become a non-nil interface
	if repo != nil {
		a.svc, err = service.NewCleaningService(cfg, repo, a.eventBus, logger)
	} else {
		a.svc, err = service.NewCleaningService(cfg, nil, a.eventBus, logger)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the history database
func (a *app) Close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
}
