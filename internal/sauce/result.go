package sauce

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind discriminates the concrete variant a Result represents.
type Kind string

const (
	KindGeneric Kind = "generic"
	KindAnime   Kind = "anime"
	KindVideo   Kind = "video"
	KindManga   Kind = "manga"
	KindBooru   Kind = "booru"
)

var allKinds = map[Kind]struct{}{
	KindGeneric: {},
	KindAnime:   {},
	KindVideo:   {},
	KindManga:   {},
	KindBooru:   {},
}

// ValidKind reports whether k names a known variant.
func ValidKind(k Kind) bool {
	_, ok := allKinds[k]
	return ok
}

// LowConfidenceThreshold is the similarity at or below which a match is
// presented with low-confidence framing.
const LowConfidenceThreshold = 60.0

// CrossIDs are the external catalog identifiers for an anime match, resolved
// lazily from the AniDB identifier carried on the wire.
type CrossIDs struct {
	AniListID int64 `json:"anilist_id"`
	MALID     int64 `json:"mal_id"`
}

// IDResolver maps an AniDB identifier to the matching external catalog IDs.
type IDResolver interface {
	Resolve(ctx context.Context, anidbID int64) (CrossIDs, error)
}

// Result is a single identification match. Exactly one Kind applies per
// instance; variant-specific fields are meaningful only for that kind.
type Result struct {
	Kind Kind

	Title        string
	AuthorName   string
	AuthorURL    string
	SourceURL    string
	ThumbnailURL string

	Similarity float64
	Index      int
	IndexName  string

	// Anime and video matches.
	Episode   string
	Timestamp string

	// Anime matches carry the AniDB identifier used for cross-referencing.
	AniDBID int64

	// Manga matches.
	Chapter string

	// Booru matches.
	Characters []string
	Material   []string

	ids *CrossIDs
}

// LowConfidence reports whether the match should carry low-confidence framing.
func (r *Result) LowConfidence() bool {
	return r.Similarity <= LowConfidenceThreshold
}

// DisplayTitle applies the title fallback chain.
func (r *Result) DisplayTitle() string {
	if title := strings.TrimSpace(r.Title); title != "" {
		return title
	}
	if author := strings.TrimSpace(r.AuthorName); author != "" {
		return author
	}
	return "Untitled"
}

// ResolveIDs fetches the external catalog identifiers for an anime match and
// caches them on the result for its remaining lifetime. Calling it again is a
// no-op once resolution has succeeded.
func (r *Result) ResolveIDs(ctx context.Context, resolver IDResolver) error {
	if r.Kind != KindAnime {
		return fmt.Errorf("resolve ids: result kind is %s, not anime", r.Kind)
	}
	if r.ids != nil {
		return nil
	}
	if resolver == nil {
		return errors.New("resolve ids: no resolver configured")
	}
	if r.AniDBID == 0 {
		return errors.New("resolve ids: match carries no anidb id")
	}
	ids, err := resolver.Resolve(ctx, r.AniDBID)
	if err != nil {
		return fmt.Errorf("resolve ids for anidb %d: %w", r.AniDBID, err)
	}
	r.ids = &ids
	return nil
}

// ResolvedIDs returns the cached catalog identifiers. The second return is
// false until ResolveIDs has completed successfully.
func (r *Result) ResolvedIDs() (CrossIDs, bool) {
	if r.ids == nil {
		return CrossIDs{}, false
	}
	return *r.ids, true
}

// AniDBURL returns the AniDB page for an anime match, or "" when unknown.
func (r *Result) AniDBURL() string {
	if r.Kind != KindAnime || r.AniDBID == 0 {
		return ""
	}
	return fmt.Sprintf("https://anidb.net/anime/%d", r.AniDBID)
}

// MALURL returns the MyAnimeList page once IDs are resolved, or "".
func (r *Result) MALURL() string {
	if r.ids == nil || r.ids.MALID == 0 {
		return ""
	}
	return fmt.Sprintf("https://myanimelist.net/anime/%d", r.ids.MALID)
}

// AniListURL returns the AniList page once IDs are resolved, or "".
func (r *Result) AniListURL() string {
	if r.ids == nil || r.ids.AniListID == 0 {
		return ""
	}
	return fmt.Sprintf("https://anilist.co/anime/%d", r.ids.AniListID)
}
