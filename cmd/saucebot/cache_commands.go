package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"saucebot/internal/config"
	"saucebot/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the lookup cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache and query-log counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				pairs := [][2]string{
					{"Cached results", strconv.Itoa(stats.Entries)},
					{"Logged queries", strconv.Itoa(stats.Queries)},
					{"Guild keys", strconv.Itoa(stats.GuildKeys)},
					{"Entry TTL", cfg.CacheTTL().String()},
				}
				if stats.Entries > 0 {
					pairs = append(pairs,
						[2]string{"Oldest entry", formatAge(stats.OldestEntry)},
						[2]string{"Newest entry", formatAge(stats.NewestEntry)},
					)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKV(pairs))
				return nil
			})
		},
	}
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete cache entries older than the configured TTL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				cutoff := time.Now().Add(-cfg.CacheTTL())
				removed, err := st.CachePurge(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired cache entries\n", removed)
				return nil
			})
		},
	}
}

func formatAge(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	age := time.Since(t).Round(time.Minute)
	if age < 0 {
		age = 0
	}
	return fmt.Sprintf("%s (%s ago)", t.UTC().Format("2006-01-02 15:04"), age)
}
