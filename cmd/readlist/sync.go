// ABOUTME: Sync command reconciling the local mirror with the reading list
// ABOUTME: Runs once or on an interval with optional Prometheus metrics and extraction

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/harper/readlist/internal/config"
	"github.com/harper/readlist/internal/metrics"
	rsync "github.com/harper/readlist/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile the local mirror with the reading list",
	Long: `Bring the local mirror in line with the reading list.

New entries are added unread, changed titles and URLs are refreshed, and
entries removed from the reading list are dropped. Local tags, read state and
extracted content are kept. An empty or unreachable reading list never
changes the local mirror.

With --watch, sync runs immediately and then every --interval until
interrupted. --metrics-addr exposes Prometheus metrics while watching.

Examples:
  readlist sync
  readlist sync --extract
  readlist sync --watch --interval 5m --metrics-addr :9090`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("watch", false, "keep running and sync on an interval")
	syncCmd.Flags().Duration("interval", 0, "sync interval for --watch (default: sync_interval from config)")
	syncCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while watching")
	syncCmd.Flags().Bool("extract", false, "extract content for new entries after syncing (default: extract_on_sync from config)")
}

func runSync(cmd *cobra.Command, args []string) error {
	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	doExtract := cfg.ExtractOnSync
	if cmd.Flags().Changed("extract") {
		doExtract, _ = cmd.Flags().GetBool("extract")
	}

	out := cmd.OutOrStdout()

	if !watch {
		if metricsAddr != "" {
			return fmt.Errorf("--metrics-addr requires --watch")
		}
		summary, err := newReconciler(metrics.Noop{}).Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		printSummary(out, summary)
		if doExtract {
			extractAfterSync(cmd.Context(), out, summary)
		}
		return nil
	}

	if interval <= 0 {
		interval = cfg.SyncInterval
	}

	var collector metrics.Collector = metrics.Noop{}
	if metricsAddr != "" {
		prom := metrics.NewPrometheusCollector()
		collector = prom
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(prom.Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		fmt.Fprintf(out, "Serving metrics on %s/metrics\n", metricsAddr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := rsync.NewScheduler(newReconciler(collector), interval, log, func(summary *rsync.Summary) {
		printSummary(out, summary)
		if doExtract {
			extractAfterSync(ctx, out, summary)
		}
	})
	fmt.Fprintf(out, "Syncing every %s (Ctrl+C to stop)\n", interval)
	scheduler.Start()

	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func printSummary(out io.Writer, s *rsync.Summary) {
	switch s.Outcome {
	case rsync.OutcomeSourceUnavailable:
		color.New(color.FgYellow).Fprintf(out, "Reading list unavailable, local mirror unchanged: %v\n", s.Err())
		return
	case rsync.OutcomeSourceEmpty:
		color.New(color.FgYellow).Fprintln(out, "Reading list is empty, local mirror unchanged")
		return
	}

	fmt.Fprintf(out, "Synced %d entries: %d added, %d updated, %d removed (%s)\n",
		s.Fetched, s.Added, s.Updated, s.Deleted, s.Duration.Round(time.Millisecond))
	for _, err := range s.Errors {
		color.New(color.FgRed).Fprintf(out, "  error: %v\n", err)
	}
}

func extractAfterSync(ctx context.Context, out io.Writer, s *rsync.Summary) {
	if s.Added == 0 {
		return
	}
	n, err := svc.EnrichPending(ctx, config.DefaultEnrichLimit)
	if n > 0 {
		fmt.Fprintf(out, "Extracted content for %d entries\n", n)
	}
	if err != nil {
		log.Warn("extraction after sync had failures", zap.Error(err))
	}
}
