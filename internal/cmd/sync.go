package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"traefik-dns-sync/internal/cloudflare"
	"traefik-dns-sync/internal/config"
	"traefik-dns-sync/internal/ipresolver"
	"traefik-dns-sync/internal/status"
	dnssync "traefik-dns-sync/internal/sync"
	"traefik-dns-sync/internal/traefik"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the reconciliation loop",
	Long: `Run reconciliation cycles on an interval until interrupted. Each cycle
extracts hostnames from the Traefik source, resolves the public IPv4 address,
and converges Cloudflare A records. Steady-state cycle failures are logged and
the next cycle is attempted; only startup configuration errors are fatal.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("source", "", "Traefik dynamic config file or directory (env: "+config.EnvPrefix+"_SOURCE)")
	syncCmd.Flags().Duration("interval", 5*time.Minute, "Delay between reconciliation cycles")
	syncCmd.Flags().Bool("once", false, "Run a single cycle and exit")
	syncCmd.Flags().Bool("dry-run", false, "Compute and log actions without mutating DNS")
	syncCmd.Flags().Bool("cleanup-stale", false, "Delete managed records whose hostname is no longer routed")
	syncCmd.Flags().String("token", "", "Cloudflare API token (env: CLOUDFLARE_API_TOKEN)")
	syncCmd.Flags().StringSlice("ip-sources", nil, "Ordered public-IP lookup endpoints")
	syncCmd.Flags().Bool("proxied", false, "Create new records with Cloudflare proxying enabled")
	syncCmd.Flags().Duration("timeout", 10*time.Second, "Per-request timeout for outbound HTTP calls")
	syncCmd.Flags().String("status-addr", "", "Listen address for the HTTP status endpoint (empty = disabled)")
}

func runSync(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg, err := config.Load(v)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	client, err := cloudflare.NewClient(cfg.APIToken, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	resolver := ipresolver.New(cfg.IPSources, cfg.RequestTimeout, logger)
	engine := &dnssync.Engine{
		Provider:       client,
		Log:            logger,
		DefaultProxied: cfg.DefaultProxied,
		DryRun:         cfg.DryRun,
		CleanupStale:   cfg.CleanupStale,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusServer := status.NewServer()
	if cfg.StatusAddr != "" {
		go func() {
			if err := statusServer.ListenAndServe(ctx, cfg.StatusAddr, logger); err != nil {
				logger.Error("status endpoint failed", "error", err)
			}
		}()
	}

	logger.Info("starting traefik-dns-sync",
		"source", cfg.Source,
		"interval", cfg.Interval,
		"once", cfg.Once,
		"dry_run", cfg.DryRun,
		"cleanup_stale", cfg.CleanupStale,
	)

	for {
		summary, err := runCycle(ctx, cfg, engine, resolver)
		statusServer.Record(summary, err)
		if err != nil {
			logger.Error("sync cycle failed", "error", err)
		} else {
			logger.Info("sync cycle completed",
				"creates", summary.Creates,
				"updates", summary.Updates,
				"noops", summary.Noops,
				"deletes", summary.Deletes,
				"skipped", summary.Skipped,
			)
		}

		if cfg.Once {
			return err
		}
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-time.After(cfg.Interval):
		}
	}
}

func runCycle(ctx context.Context, cfg *config.Config, engine *dnssync.Engine, resolver *ipresolver.Resolver) (dnssync.Summary, error) {
	hostnames, err := traefik.ExtractHostnames(cfg.Source, logger)
	if err != nil {
		return dnssync.Summary{}, err
	}
	if len(hostnames) == 0 {
		logger.Warn("no hostnames discovered from source, skipping dns mutations for this cycle", "source", cfg.Source)
		return dnssync.Summary{}, nil
	}

	publicIP, err := resolver.ResolveIPv4(ctx)
	if err != nil {
		return dnssync.Summary{}, err
	}
	logger.Info("resolved public ipv4", "ip", publicIP)

	return engine.Run(ctx, hostnames, publicIP)
}
