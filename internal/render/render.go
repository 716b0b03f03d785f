// Package render turns lookup outcomes into response embeds.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"saucebot/internal/chat"
	"saucebot/internal/logging"
	"saucebot/internal/sauce"
	"saucebot/internal/services"
)

const component = "render"

// pixivLegacyPath is the old-style illustration URL SauceNAO still
// returns for pixiv entries. Modern pixiv only serves the artworks form.
const pixivLegacyPath = "member_illust.php?mode=medium&illust_id="

var titleCaser = cases.Title(language.English)

// Renderer builds embeds, resolving cross-service identifiers for
// anime results along the way.
type Renderer struct {
	resolver sauce.IDResolver
	logger   *slog.Logger
}

// New creates a Renderer. The resolver may be nil, which skips the
// cross-service link block on anime results.
func New(resolver sauce.IDResolver, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Renderer{
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, component),
	}
}

// Result builds the embed for a successful lookup.
func (r *Renderer) Result(ctx context.Context, result *sauce.Result) *chat.Embed {
	embed := &chat.Embed{
		Title:       result.DisplayTitle(),
		URL:         rewriteSourceURL(result.SourceURL),
		Description: fmt.Sprintf("Matched via %s at %.2f%% similarity.", result.IndexName, result.Similarity),
		ImageURL:    result.ThumbnailURL,
		FooterText:  "Source found",
	}
	if result.LowConfidence() {
		embed.Description = fmt.Sprintf("Possible match via %s at only %.2f%% similarity.", result.IndexName, result.Similarity)
		embed.FooterText = "Source found, but the similarity is low; treat with suspicion"
	}
	if result.AuthorName != "" && result.Title != "" {
		embed.AuthorName = result.AuthorName
		embed.AuthorURL = result.AuthorURL
	}

	switch result.Kind {
	case sauce.KindAnime:
		r.addVideoFields(embed, result)
		r.addAnimeLinks(ctx, embed, result)
	case sauce.KindVideo:
		r.addVideoFields(embed, result)
	case sauce.KindManga:
		if result.Chapter != "" {
			embed.AddField("Chapter", result.Chapter, true)
		}
	case sauce.KindBooru:
		if len(result.Characters) > 0 {
			embed.AddField("Characters", titleCaseList(result.Characters), false)
		}
		if len(result.Material) > 0 {
			embed.AddField("Material", titleCaseList(result.Material), false)
		}
	}
	return embed
}

func (r *Renderer) addVideoFields(embed *chat.Embed, result *sauce.Result) {
	if result.Episode != "" {
		embed.AddField("Episode", result.Episode, true)
	}
	if result.Timestamp != "" {
		embed.AddField("Timestamp", result.Timestamp, true)
	}
}

func (r *Renderer) addAnimeLinks(ctx context.Context, embed *chat.Embed, result *sauce.Result) {
	if r.resolver != nil {
		if err := result.ResolveIDs(ctx, r.resolver); err != nil {
			r.logger.Warn("cross-service id resolution failed", logging.Error(err))
		}
	}
	var links [][2]string
	if anidbURL := result.AniDBURL(); anidbURL != "" {
		links = append(links, [2]string{"AniDB", anidbURL})
	}
	if malURL := result.MALURL(); malURL != "" {
		links = append(links, [2]string{"MyAnimeList", malURL})
	}
	if anilistURL := result.AniListURL(); anilistURL != "" {
		links = append(links, [2]string{"AniList", anilistURL})
	}
	if len(links) > 0 {
		embed.AddField("More info", joinLinks(links), false)
	}
}

// NotFound builds the embed shown when no source matched, pointing at
// other reverse search engines for a manual look.
func (r *Renderer) NotFound(imageURL string) *chat.Embed {
	escaped := url.QueryEscape(imageURL)
	links := [][2]string{
		{"Google", "https://www.google.com/searchbyimage?sbisrc=4chanx&image_url=" + escaped + "&safe=off"},
		{"ascii2d", "https://ascii2d.net/search/url/" + imageURL},
		{"Yandex", "https://yandex.com/images/search?url=" + escaped + "&rpt=imageview"},
		{"IQDB", "https://iqdb.org/?url=" + escaped},
	}
	embed := &chat.Embed{
		Title:       "No sauce found",
		Description: "None of the indexes recognized this image. One of these engines might.",
	}
	embed.AddField("Search engines", joinLinks(links), false)
	return embed
}

// Error builds the embed for a failed lookup, phrased for the member
// who ran the command.
func (r *Renderer) Error(err error) *chat.Embed {
	return &chat.Embed{
		Title:       "Error",
		Description: userMessage(err),
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrNoImage):
		return "I couldn't find an image to look up. Attach one, reply to one, or pass a URL."
	case errors.Is(err, services.ErrInvalidImage):
		return "That doesn't look like a usable image link."
	case errors.Is(err, services.ErrMemberQuota):
		return "You've used up your lookups for the day. Try again later."
	case errors.Is(err, services.ErrGuildQuota), errors.Is(err, services.ErrShortLimit), errors.Is(err, services.ErrDailyLimit):
		return "The shared search quota is exhausted. Server admins can register their own enhanced API key to lift it."
	case errors.Is(err, services.ErrInvalidKey):
		return "The configured API key was rejected by the search service."
	case errors.Is(err, services.ErrBadKeyFormat):
		return "That doesn't look like a valid API key."
	case errors.Is(err, services.ErrFreeTierKey):
		return "Only enhanced API keys can be registered. Free keys don't lift the shared quota."
	case errors.Is(err, services.ErrSelectionTimedOut):
		return "No image was picked in time. Run the command again when you're ready."
	default:
		return "The search service is unavailable right now. Try again later."
	}
}

// rewriteSourceURL upgrades legacy pixiv illustration URLs to the
// artworks form.
func rewriteSourceURL(sourceURL string) string {
	if strings.Contains(sourceURL, "illust_id") {
		return strings.Replace(sourceURL, pixivLegacyPath, "artworks/", 1)
	}
	return sourceURL
}

func joinLinks(links [][2]string) string {
	parts := make([]string, 0, len(links))
	for _, link := range links {
		parts = append(parts, fmt.Sprintf("[%s](%s)", link[0], link[1]))
	}
	return strings.Join(parts, " • ")
}

func titleCaseList(items []string) string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, titleCaser.String(strings.ReplaceAll(item, "_", " ")))
	}
	return strings.Join(out, ", ")
}
