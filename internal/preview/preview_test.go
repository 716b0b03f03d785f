package preview_test

import (
	"context"
	"errors"
	"testing"

	"saucebot/internal/logging"
	"saucebot/internal/preview"
	"saucebot/internal/sauce"
	"saucebot/internal/tracemoe"
)

type fakeScenes struct {
	response   *tracemoe.SearchResponse
	searchErr  error
	clip       []byte
	previewErr error
}

func (f *fakeScenes) Search(ctx context.Context, imageURL string) (*tracemoe.SearchResponse, error) {
	return f.response, f.searchErr
}

func (f *fakeScenes) VideoPreview(ctx context.Context, match *tracemoe.Match) ([]byte, error) {
	return f.clip, f.previewErr
}

type fakeResolver struct {
	ids sauce.CrossIDs
	err error
}

func (f *fakeResolver) Resolve(ctx context.Context, anidbID int64) (sauce.CrossIDs, error) {
	return f.ids, f.err
}

func animeResult() *sauce.Result {
	return &sauce.Result{Kind: sauce.KindAnime, Title: "Example Show", AniDBID: 777, Similarity: 90}
}

func TestPreviewAttachedWhenServicesAgree(t *testing.T) {
	scenes := &fakeScenes{
		response: &tracemoe.SearchResponse{Matches: []tracemoe.Match{
			{AnilistID: 888, VideoURL: "https://media.trace.example/v", IsAdult: true},
		}},
		clip: []byte("clip"),
	}
	r := preview.New(scenes, &fakeResolver{ids: sauce.CrossIDs{AniListID: 888}}, logging.NewNop())

	clip := r.For(context.Background(), animeResult(), "https://cdn.example/a.png")
	if clip == nil {
		t.Fatal("expected a preview")
	}
	if clip.Filename != "example_show_preview.mp4" {
		t.Fatalf("unexpected filename %q", clip.Filename)
	}
	if !clip.NSFW {
		t.Fatal("adult flag lost")
	}
	if string(clip.Data) != "clip" {
		t.Fatalf("unexpected clip data %q", clip.Data)
	}
}

func TestPreviewWithheldOnSeriesMismatch(t *testing.T) {
	scenes := &fakeScenes{
		response: &tracemoe.SearchResponse{Matches: []tracemoe.Match{
			{AnilistID: 999, VideoURL: "https://media.trace.example/v"},
		}},
		clip: []byte("clip"),
	}
	r := preview.New(scenes, &fakeResolver{ids: sauce.CrossIDs{AniListID: 888}}, logging.NewNop())

	if clip := r.For(context.Background(), animeResult(), "https://cdn.example/a.png"); clip != nil {
		t.Fatalf("mismatched series must not produce a preview, got %+v", clip)
	}
}

func TestPreviewDisabledWithoutSearcher(t *testing.T) {
	r := preview.New(nil, &fakeResolver{}, logging.NewNop())
	if r.Enabled() {
		t.Fatal("reconciler without a searcher must report disabled")
	}
	if clip := r.For(context.Background(), animeResult(), "https://cdn.example/a.png"); clip != nil {
		t.Fatalf("disabled reconciler produced a preview: %+v", clip)
	}
}

func TestPreviewOnlyForAnime(t *testing.T) {
	scenes := &fakeScenes{
		response: &tracemoe.SearchResponse{Matches: []tracemoe.Match{{AnilistID: 888}}},
		clip:     []byte("clip"),
	}
	r := preview.New(scenes, &fakeResolver{ids: sauce.CrossIDs{AniListID: 888}}, logging.NewNop())

	booru := &sauce.Result{Kind: sauce.KindBooru, Title: "Art"}
	if clip := r.For(context.Background(), booru, "https://cdn.example/a.png"); clip != nil {
		t.Fatalf("non-anime result produced a preview: %+v", clip)
	}
}

func TestPreviewSwallowsFailures(t *testing.T) {
	cases := []struct {
		name     string
		scenes   *fakeScenes
		resolver *fakeResolver
	}{
		{
			"search error",
			&fakeScenes{searchErr: errors.New("boom")},
			&fakeResolver{ids: sauce.CrossIDs{AniListID: 888}},
		},
		{
			"no matches",
			&fakeScenes{response: &tracemoe.SearchResponse{}},
			&fakeResolver{ids: sauce.CrossIDs{AniListID: 888}},
		},
		{
			"resolver error",
			&fakeScenes{response: &tracemoe.SearchResponse{Matches: []tracemoe.Match{{AnilistID: 888}}}},
			&fakeResolver{err: errors.New("boom")},
		},
		{
			"unresolved ids",
			&fakeScenes{response: &tracemoe.SearchResponse{Matches: []tracemoe.Match{{AnilistID: 888}}}},
			&fakeResolver{},
		},
		{
			"download error",
			&fakeScenes{
				response:   &tracemoe.SearchResponse{Matches: []tracemoe.Match{{AnilistID: 888, VideoURL: "https://v"}}},
				previewErr: errors.New("boom"),
			},
			&fakeResolver{ids: sauce.CrossIDs{AniListID: 888}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := preview.New(tc.scenes, tc.resolver, logging.NewNop())
			if clip := r.For(context.Background(), animeResult(), "https://cdn.example/a.png"); clip != nil {
				t.Fatalf("expected nil preview, got %+v", clip)
			}
		})
	}
}
