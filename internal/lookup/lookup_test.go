package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"saucebot/internal/logging"
	"saucebot/internal/lookup"
	"saucebot/internal/sauce"
	"saucebot/internal/saucenao"
	"saucebot/internal/services"
	"saucebot/internal/testsupport"
)

type fakeSearcher struct {
	response *saucenao.SearchResponse
	err      error
	calls    int
	lastKey  string
}

func (f *fakeSearcher) Search(ctx context.Context, apiKey, imageURL string) (*saucenao.SearchResponse, error) {
	f.calls++
	f.lastKey = apiKey
	return f.response, f.err
}

func (f *fakeSearcher) Test(ctx context.Context, apiKey string) (*saucenao.AccountInfo, error) {
	return &saucenao.AccountInfo{AccountType: saucenao.AccountEnhanced}, nil
}

func animeResult() *sauce.Result {
	return &sauce.Result{
		Kind:       sauce.KindAnime,
		Title:      "Example Show",
		Similarity: 91.5,
		Index:      21,
		IndexName:  "Anime",
		AniDBID:    777,
	}
}

func TestLookupCachesResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	searcher := &fakeSearcher{response: &saucenao.SearchResponse{Results: []*sauce.Result{animeResult()}}}
	service := lookup.New(st, searcher, logging.NewNop())
	ctx := context.Background()

	url := "https://cdn.example/a.png"
	outcome, err := service.Lookup(ctx, "guild-1", "user-1", url)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if outcome.FromCache {
		t.Fatal("first lookup must not come from cache")
	}
	if outcome.Result == nil || outcome.Result.Title != "Example Show" {
		t.Fatalf("unexpected result: %#v", outcome.Result)
	}

	outcome, err = service.Lookup(ctx, "guild-1", "user-1", url)
	if err != nil {
		t.Fatalf("second Lookup failed: %v", err)
	}
	if !outcome.FromCache {
		t.Fatal("second lookup should hit the cache")
	}
	if searcher.calls != 1 {
		t.Fatalf("expected one api call, got %d", searcher.calls)
	}
}

func TestLookupLogsQueryBeforeCacheCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	searcher := &fakeSearcher{response: &saucenao.SearchResponse{Results: []*sauce.Result{animeResult()}}}
	service := lookup.New(st, searcher, logging.NewNop())
	ctx := context.Background()

	url := "https://cdn.example/a.png"
	for i := 0; i < 3; i++ {
		if _, err := service.Lookup(ctx, "guild-1", "user-1", url); err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
	}

	count, err := st.UserQueryCount(ctx, "user-1", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("UserQueryCount failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("cache hits must still be logged, got %d queries", count)
	}
}

func TestLookupUsesGuildKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	searcher := &fakeSearcher{response: &saucenao.SearchResponse{}}
	service := lookup.New(st, searcher, logging.NewNop())
	ctx := context.Background()

	if _, err := service.Lookup(ctx, "guild-1", "user-1", "https://cdn.example/a.png"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if searcher.lastKey != "" {
		t.Fatalf("expected shared key fallback, got %q", searcher.lastKey)
	}

	if err := st.RegisterGuildKey(ctx, "guild-1", "guild-specific-key", "admin-1"); err != nil {
		t.Fatalf("RegisterGuildKey failed: %v", err)
	}
	if _, err := service.Lookup(ctx, "guild-1", "user-1", "https://cdn.example/b.png"); err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if searcher.lastKey != "guild-specific-key" {
		t.Fatalf("expected guild key, got %q", searcher.lastKey)
	}
}

func TestLookupNoMatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	searcher := &fakeSearcher{response: &saucenao.SearchResponse{}}
	service := lookup.New(st, searcher, logging.NewNop())
	ctx := context.Background()

	url := "https://cdn.example/a.png"
	outcome, err := service.Lookup(ctx, "guild-1", "user-1", url)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if outcome.Result != nil {
		t.Fatalf("expected no result, got %#v", outcome.Result)
	}

	// Misses are not cached; the next lookup asks the API again.
	if _, err := service.Lookup(ctx, "guild-1", "user-1", url); err != nil {
		t.Fatalf("second Lookup failed: %v", err)
	}
	if searcher.calls != 2 {
		t.Fatalf("expected two api calls, got %d", searcher.calls)
	}
}

func TestLookupPropagatesSearchErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	searcher := &fakeSearcher{err: services.Wrap(services.ErrDailyLimit, "saucenao", "search", "rate limited", nil)}
	service := lookup.New(st, searcher, logging.NewNop())

	_, err := service.Lookup(context.Background(), "guild-1", "user-1", "https://cdn.example/a.png")
	if !errors.Is(err, services.ErrDailyLimit) {
		t.Fatalf("expected ErrDailyLimit, got %v", err)
	}
}
