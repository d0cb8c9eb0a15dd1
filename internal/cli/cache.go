package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPkgCacheCommand groups the intelligent cache's inspection and
// maintenance operations (§6 `pkg-cache`).
func newPkgCacheCommand(cfg *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pkg-cache",
		Short: "inspect and tune the package candidate cache",
	}
	cmd.AddCommand(newPkgCacheStatsCommand(cfg))
	cmd.AddCommand(newPkgCachePreheatCommand(cfg))
	cmd.AddCommand(newPkgCacheTuneCommand(cfg))
	return cmd
}

func newPkgCacheStatsCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print the cache's hit/miss/eviction counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			stats := svc.CacheStats()
			fmt.Fprintf(cmd.OutOrStdout(),
				"l1: %d/%d  l2: %d/%d  hits: %d  misses: %d  promotions: %d  evictions: %d  hit_rate: %.3f\n",
				stats.L1Entries, stats.L1Capacity, stats.L2Entries, stats.L2Capacity,
				stats.Hits, stats.Misses, stats.Promotions, stats.Evictions, stats.HitRate)
			return nil
		},
	}
}

func newPkgCachePreheatCommand(cfg *RootConfig) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preheat KEY",
		Short: "warm the cache for the names predicted to follow KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := cancellableContext()
			defer cancel()
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			predicted, err := svc.CachePreheat(ctx, args[0], limit)
			if err != nil {
				return err
			}
			for _, name := range predicted {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of names to preheat")
	return cmd
}

func newPkgCacheTuneCommand(cfg *RootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "tune",
		Short: "print the adaptive tuner's current recommendation, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(cfg)
			if err != nil {
				return err
			}
			rec := svc.CacheTune()
			if rec == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no recommendation")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.3f -> %.3f (confidence %.2f): %s\n",
				rec.Parameter, rec.FromValue, rec.ToValue, rec.Confidence, rec.Reason)
			return nil
		},
	}
}
