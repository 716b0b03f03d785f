package animeids_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"saucebot/internal/animeids"
	"saucebot/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *animeids.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := animeids.New(server.URL, time.Second)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestResolve(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("source"); got != "anidb" {
			t.Errorf("unexpected source %q", got)
		}
		if got := r.URL.Query().Get("id"); got != "777" {
			t.Errorf("unexpected id %q", got)
		}
		w.Write([]byte(`{"anidb": 777, "anilist": 888, "myanimelist": 999}`))
	})

	ids, err := client.Resolve(context.Background(), 777)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ids.AniListID != 888 || ids.MALID != 999 {
		t.Fatalf("unexpected ids: %+v", ids)
	}
}

func TestResolveUnknownEntry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ids, err := client.Resolve(context.Background(), 12)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ids.AniListID != 0 || ids.MALID != 0 {
		t.Fatalf("expected zero ids for unknown entry, got %+v", ids)
	}
}

func TestResolveServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Resolve(context.Background(), 12)
	if !errors.Is(err, services.ErrAPIUnavailable) {
		t.Fatalf("expected ErrAPIUnavailable, got %v", err)
	}
}

func TestResolveRejectsNonPositiveID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not have been made")
	})

	if _, err := client.Resolve(context.Background(), 0); err == nil {
		t.Fatal("expected error for zero id")
	}
}
