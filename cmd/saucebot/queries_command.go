package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"saucebot/internal/config"
	"saucebot/internal/ratelimit"
	"saucebot/internal/store"
)

func newQueriesCommand(ctx *commandContext) *cobra.Command {
	queriesCmd := &cobra.Command{
		Use:   "queries",
		Short: "Inspect the query log",
	}

	queriesCmd.AddCommand(newQueriesCountCommand(ctx))

	return queriesCmd
}

func newQueriesCountCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var guildID string

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count queries in the rolling quota window",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID = strings.TrimSpace(userID)
			guildID = strings.TrimSpace(guildID)
			if userID == "" && guildID == "" {
				return fmt.Errorf("queries count: pass --user and/or --guild")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				since := time.Now().Add(-ratelimit.Window)
				out := cmd.OutOrStdout()
				if userID != "" {
					count, err := st.UserQueryCount(cmd.Context(), userID, since)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "User %s: %d queries in the last %s (limit %d)\n",
						userID, count, ratelimit.Window, cfg.SauceNao.MemberQueryLimit)
				}
				if guildID != "" {
					count, err := st.GuildQueryCount(cmd.Context(), guildID, since)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Guild %s: %d queries in the last %s (limit %d)\n",
						guildID, count, ratelimit.Window, cfg.SauceNao.GuildDailyLimit)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to count queries for")
	cmd.Flags().StringVar(&guildID, "guild", "", "Guild ID to count queries for")
	return cmd
}
