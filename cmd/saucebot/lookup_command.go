package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"saucebot/internal/config"
	"saucebot/internal/lookup"
	"saucebot/internal/ratelimit"
	"saucebot/internal/render"
	"saucebot/internal/sauce"
	"saucebot/internal/store"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var guildID string
	var userID string

	cmd := &cobra.Command{
		Use:   "lookup <image-url>",
		Short: "Identify the source of an image URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageURL := strings.TrimSpace(args[0])
			if imageURL == "" {
				return fmt.Errorf("lookup: image URL is empty")
			}

			logger := ctx.newLogger()
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				limiter := ratelimit.New(st, cfg.SauceNao.GuildDailyLimit, cfg.SauceNao.MemberQueryLimit, logger)
				if err := limiter.CheckMember(cmd.Context(), userID); err != nil {
					return err
				}
				if err := limiter.CheckGuild(cmd.Context(), guildID); err != nil {
					return err
				}

				searcher, err := ctx.newSearcher()
				if err != nil {
					return err
				}
				svc := lookup.New(st, searcher, logger)
				outcome, err := svc.Lookup(cmd.Context(), guildID, userID, imageURL)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if outcome.Result == nil {
					fmt.Fprintln(out, renderStatusLine("Lookup", statusWarn, "no match above the similarity floor", colorize))
					renderer := render.New(nil, logger)
					embed := renderer.NotFound(imageURL)
					for _, field := range embed.Fields {
						fmt.Fprintf(out, "  %s: %s\n", field.Name, field.Value)
					}
					return nil
				}

				kind := statusOK
				note := "match found"
				if outcome.FromCache {
					note = "match found (cached)"
				}
				if outcome.Result.LowConfidence() {
					kind = statusWarn
					note += ", low confidence"
				}
				fmt.Fprintln(out, renderStatusLine("Lookup", kind, note, colorize))
				fmt.Fprintln(out, renderKV(resultPairs(outcome.Result)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&guildID, "guild", "cli", "Guild ID to attribute the query to")
	cmd.Flags().StringVar(&userID, "user", "cli", "User ID to attribute the query to")
	return cmd
}

func resultPairs(result *sauce.Result) [][2]string {
	pairs := [][2]string{
		{"Kind", string(result.Kind)},
		{"Title", result.DisplayTitle()},
		{"Similarity", fmt.Sprintf("%.2f%%", result.Similarity)},
		{"Index", result.IndexName},
	}
	if result.SourceURL != "" {
		pairs = append(pairs, [2]string{"Source", result.SourceURL})
	}
	if result.AuthorName != "" {
		pairs = append(pairs, [2]string{"Author", result.AuthorName})
	}
	switch result.Kind {
	case sauce.KindAnime, sauce.KindVideo:
		if result.Episode != "" {
			pairs = append(pairs, [2]string{"Episode", result.Episode})
		}
		if result.Timestamp != "" {
			pairs = append(pairs, [2]string{"Timestamp", result.Timestamp})
		}
	case sauce.KindManga:
		if result.Chapter != "" {
			pairs = append(pairs, [2]string{"Chapter", result.Chapter})
		}
	case sauce.KindBooru:
		if len(result.Characters) > 0 {
			pairs = append(pairs, [2]string{"Characters", strings.Join(result.Characters, ", ")})
		}
		if len(result.Material) > 0 {
			pairs = append(pairs, [2]string{"Material", strings.Join(result.Material, ", ")})
		}
	}
	return pairs
}
