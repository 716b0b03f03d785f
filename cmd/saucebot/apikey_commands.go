package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"saucebot/internal/config"
	"saucebot/internal/saucenao"
	"saucebot/internal/store"
)

func newAPIKeyCommand(ctx *commandContext) *cobra.Command {
	apikeyCmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage per-guild API credentials",
	}

	apikeyCmd.AddCommand(newAPIKeyTestCommand(ctx))
	apikeyCmd.AddCommand(newAPIKeyRegisterCommand(ctx))
	apikeyCmd.AddCommand(newAPIKeyShowCommand(ctx))

	return apikeyCmd
}

func newAPIKeyTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <key>",
		Short: "Verify a key against the identification service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if !saucenao.ValidKeyFormat(key) {
				fmt.Fprintln(out, renderStatusLine("Format", statusError, "keys are 40 alphanumeric characters", colorize))
				return fmt.Errorf("apikey test: malformed key")
			}
			fmt.Fprintln(out, renderStatusLine("Format", statusOK, "", colorize))

			searcher, err := ctx.newSearcher()
			if err != nil {
				return err
			}
			info, err := searcher.Test(cmd.Context(), key)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Credential", statusError, err.Error(), colorize))
				return fmt.Errorf("apikey test: key rejected")
			}

			tier := "free"
			kind := statusWarn
			if info.Enhanced() {
				tier = "enhanced"
				kind = statusOK
			}
			fmt.Fprintln(out, renderStatusLine("Credential", kind, fmt.Sprintf("account %s, %s tier", info.UserID, tier), colorize))
			fmt.Fprintln(out, renderStatusLine("Remaining", statusInfo, fmt.Sprintf("%d short, %d daily", info.ShortRemaining, info.LongRemaining), colorize))
			return nil
		},
	}
}

func newAPIKeyRegisterCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "register <guild-id> <key>",
		Short: "Register an enhanced key for a guild",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			key := strings.TrimSpace(args[1])
			if guildID == "" {
				return fmt.Errorf("apikey register: guild ID is empty")
			}
			if !saucenao.ValidKeyFormat(key) {
				return fmt.Errorf("apikey register: keys are 40 alphanumeric characters")
			}

			searcher, err := ctx.newSearcher()
			if err != nil {
				return err
			}
			info, err := searcher.Test(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("apikey register: %w", err)
			}
			if !info.Enhanced() {
				return fmt.Errorf("apikey register: only enhanced-tier keys can be registered")
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				if err := st.RegisterGuildKey(cmd.Context(), guildID, key, "cli"); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered enhanced key for guild %s\n", guildID)
				return nil
			})
		},
	}
}

func newAPIKeyShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <guild-id>",
		Short: "Show the registered key for a guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID := strings.TrimSpace(args[0])
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				key, err := st.GuildKey(cmd.Context(), guildID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if key == nil {
					fmt.Fprintf(out, "No key registered for guild %s\n", guildID)
					return nil
				}
				fmt.Fprintln(out, renderKV([][2]string{
					{"Guild", key.GuildID},
					{"Key", redactKey(key.APIKey)},
					{"Registered by", key.RegisteredBy},
					{"Registered at", key.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")},
				}))
				return nil
			})
		},
	}
}

func redactKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
