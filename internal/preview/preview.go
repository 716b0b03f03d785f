// Package preview fetches short scene clips for anime matches from
// trace.moe and reconciles them against the primary search result
// before they are attached to a response.
package preview

import (
	"context"
	"log/slog"
	"strings"

	"saucebot/internal/logging"
	"saucebot/internal/sauce"
	"saucebot/internal/tracemoe"
)

const component = "preview"

// Preview is a downloadable clip ready to attach to a response.
type Preview struct {
	Filename string
	Data     []byte

	// NSFW marks clips from adult series. The caller decides whether
	// the destination channel may receive them.
	NSFW bool
}

// Reconciler produces previews for anime results. Preview generation
// is strictly best effort: every failure degrades to no preview.
type Reconciler struct {
	searcher tracemoe.Searcher
	resolver sauce.IDResolver
	logger   *slog.Logger
}

// New creates a Reconciler. A nil searcher disables previews entirely,
// which is how a missing trace.moe token is expressed.
func New(searcher tracemoe.Searcher, resolver sauce.IDResolver, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		searcher: searcher,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, component),
	}
}

// Enabled reports whether preview generation is configured.
func (r *Reconciler) Enabled() bool {
	return r != nil && r.searcher != nil
}

// For returns a preview clip for an anime result, or nil when previews
// are disabled, the result is not an anime, the secondary service
// disagrees about the series, or anything fails along the way.
func (r *Reconciler) For(ctx context.Context, result *sauce.Result, imageURL string) *Preview {
	if !r.Enabled() || result == nil || result.Kind != sauce.KindAnime {
		return nil
	}

	response, err := r.searcher.Search(ctx, imageURL)
	if err != nil {
		r.logger.Warn("scene search failed", logging.Error(err))
		return nil
	}
	match := response.Best()
	if match == nil {
		r.logger.Info("scene search returned no results")
		return nil
	}

	if err := result.ResolveIDs(ctx, r.resolver); err != nil {
		r.logger.Warn("cross-service id resolution failed", logging.Error(err))
		return nil
	}
	ids, ok := result.ResolvedIDs()
	if !ok || ids.AniListID == 0 {
		return nil
	}
	if ids.AniListID != match.AnilistID {
		r.logger.Info("primary and scene search disagree on the series",
			logging.Int64("anilist_id", ids.AniListID),
			logging.Int64("scene_anilist_id", match.AnilistID))
		return nil
	}

	clip, err := r.searcher.VideoPreview(ctx, match)
	if err != nil {
		r.logger.Warn("preview download failed", logging.Error(err))
		return nil
	}
	r.logger.Info("downloaded scene preview",
		logging.Int64("anilist_id", ids.AniListID),
		logging.Int("bytes", len(clip)))

	return &Preview{
		Filename: filenameFor(result),
		Data:     clip,
		NSFW:     match.IsAdult,
	}
}

func filenameFor(result *sauce.Result) string {
	name := strings.ToLower(result.DisplayTitle())
	name = strings.ReplaceAll(name, " ", "_")
	return name + "_preview.mp4"
}
