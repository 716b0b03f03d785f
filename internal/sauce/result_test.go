package sauce_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"saucebot/internal/sauce"
)

type stubResolver struct {
	ids   sauce.CrossIDs
	err   error
	calls int
}

func (s *stubResolver) Resolve(context.Context, int64) (sauce.CrossIDs, error) {
	s.calls++
	return s.ids, s.err
}

func TestResolveIDsCachesOnResult(t *testing.T) {
	resolver := &stubResolver{ids: sauce.CrossIDs{AniListID: 100, MALID: 200}}
	result := &sauce.Result{Kind: sauce.KindAnime, AniDBID: 42}

	if _, ok := result.ResolvedIDs(); ok {
		t.Fatal("ids must not be resolved before ResolveIDs")
	}
	if err := result.ResolveIDs(context.Background(), resolver); err != nil {
		t.Fatalf("ResolveIDs failed: %v", err)
	}
	if err := result.ResolveIDs(context.Background(), resolver); err != nil {
		t.Fatalf("second ResolveIDs failed: %v", err)
	}
	if resolver.calls != 1 {
		t.Fatalf("expected a single resolver call, got %d", resolver.calls)
	}
	ids, ok := result.ResolvedIDs()
	if !ok || ids.AniListID != 100 || ids.MALID != 200 {
		t.Fatalf("unexpected resolved ids: %+v ok=%v", ids, ok)
	}
	if result.AniListURL() != "https://anilist.co/anime/100" {
		t.Fatalf("unexpected anilist url: %s", result.AniListURL())
	}
	if result.MALURL() != "https://myanimelist.net/anime/200" {
		t.Fatalf("unexpected mal url: %s", result.MALURL())
	}
}

func TestResolveIDsRejectsNonAnime(t *testing.T) {
	result := &sauce.Result{Kind: sauce.KindBooru}
	if err := result.ResolveIDs(context.Background(), &stubResolver{}); err == nil {
		t.Fatal("expected error for non-anime result")
	}
}

func TestResolveIDsPropagatesFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("relation service down")}
	result := &sauce.Result{Kind: sauce.KindAnime, AniDBID: 7}
	if err := result.ResolveIDs(context.Background(), resolver); err == nil {
		t.Fatal("expected error from resolver")
	}
	if _, ok := result.ResolvedIDs(); ok {
		t.Fatal("failed resolution must not cache ids")
	}
}

func TestDisplayTitleFallbackChain(t *testing.T) {
	cases := []struct {
		name     string
		result   sauce.Result
		expected string
	}{
		{"title", sauce.Result{Title: "Skies", AuthorName: "aoi"}, "Skies"},
		{"author", sauce.Result{AuthorName: "aoi"}, "aoi"},
		{"untitled", sauce.Result{}, "Untitled"},
	}
	for _, tc := range cases {
		if got := tc.result.DisplayTitle(); got != tc.expected {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.expected, got)
		}
	}
}

func TestLowConfidenceBoundary(t *testing.T) {
	if !(&sauce.Result{Similarity: 60}).LowConfidence() {
		t.Fatal("similarity 60 should be low confidence")
	}
	if (&sauce.Result{Similarity: 60.1}).LowConfidence() {
		t.Fatal("similarity above 60 should not be low confidence")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	results := []*sauce.Result{
		{
			Kind:         sauce.KindAnime,
			Title:        "Example Show",
			ThumbnailURL: "https://img.example/1.jpg",
			Similarity:   92.4,
			Index:        21,
			IndexName:    "Anime",
			Episode:      "4",
			Timestamp:    "00:12:35",
			AniDBID:      1234,
		},
		{
			Kind:         sauce.KindBooru,
			ThumbnailURL: "https://img.example/2.jpg",
			Similarity:   71.0,
			Index:        25,
			IndexName:    "Gelbooru",
			Characters:   []string{"hatsune miku"},
			Material:     []string{"vocaloid"},
		},
		{
			Kind:         sauce.KindManga,
			Title:        "Example Manga",
			AuthorName:   "someone",
			AuthorURL:    "https://author.example",
			SourceURL:    "https://manga.example/ch/3",
			ThumbnailURL: "https://img.example/3.jpg",
			Similarity:   55.5,
			Index:        37,
			IndexName:    "MangaDex",
			Chapter:      "Chapter 3",
		},
	}

	for _, original := range results {
		kind, header, payload, err := sauce.Encode(original)
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		decoded, err := sauce.Decode(kind, header, payload)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !reflect.DeepEqual(original, decoded) {
			t.Fatalf("round trip mismatch:\n  original %#v\n  decoded  %#v", original, decoded)
		}
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	if _, err := sauce.Decode("mystery", []byte(`{}`), []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
