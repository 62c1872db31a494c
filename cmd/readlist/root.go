// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config and wires logger, store, reading list and service for subcommands

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/readlist/internal/config"
	"github.com/harper/readlist/internal/extract"
	"github.com/harper/readlist/internal/fetch"
	"github.com/harper/readlist/internal/logger"
	"github.com/harper/readlist/internal/metrics"
	"github.com/harper/readlist/internal/readinglist"
	"github.com/harper/readlist/internal/service"
	"github.com/harper/readlist/internal/storage"
	rsync "github.com/harper/readlist/internal/sync"
)

// skipInit marks commands that run without opening storage.
const skipInit = "skip-init"

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	log    *zap.Logger
	store  storage.Store
	source readinglist.Source
	svc    *service.Service
)

var rootCmd = &cobra.Command{
	Use:   "readlist",
	Short: "Local mirror of your reading list with MCP integration",
	Long: `
██████╗ ███████╗ █████╗ ██████╗ ██╗     ██╗███████╗████████╗
██╔══██╗██╔════╝██╔══██╗██╔══██╗██║     ██║██╔════╝╚══██╔══╝
██████╔╝█████╗  ███████║██║  ██║██║     ██║███████╗   ██║
██╔══██╗██╔══╝  ██╔══██║██║  ██║██║     ██║╚════██║   ██║
██║  ██║███████╗██║  ██║██████╔╝███████╗██║███████║   ██║
╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝ ╚══════╝╚═╝╚══════╝   ╚═╝

Reading list mirror for humans and AI agents.

Keeps a local, searchable copy of your reading list, adds tags and
read state, extracts article text, and exposes it all via MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipInit] == "true" {
			return nil
		}
		return initApp()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.config/readlist/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		c.Log.Level = "debug"
	}
	return c, nil
}

func initApp() error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}

	log, err = logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	store, err = cfg.OpenStorage(log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	source, err = cfg.OpenSource(log)
	if err != nil {
		return fmt.Errorf("failed to open reading list: %w", err)
	}

	svc = service.New(store, source, service.Options{
		Logger:    log,
		Extractor: extract.New(fetch.New(cfg.RequestTimeout), log),
	})
	return nil
}

func closeApp() error {
	if log != nil {
		_ = log.Sync()
	}
	if store != nil {
		err := store.Close()
		store = nil
		if err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}
	return nil
}

// newReconciler builds a reconciler over the open store and reading list.
func newReconciler(collector metrics.Collector) *rsync.Reconciler {
	return rsync.New(source, store, rsync.Options{
		Timeout: cfg.RequestTimeout,
		Logger:  log,
		Metrics: collector,
	})
}

// shortID truncates an entry id for display.
func shortID(id string) string {
	if len(id) > config.DisplayIDLength {
		return id[:config.DisplayIDLength]
	}
	return id
}
