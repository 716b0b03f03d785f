package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()

	base := t.TempDir()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[saucenao]\napi_key = %q\nbase_url = %q\nmin_similarity = 50.0\n",
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		"sharedkeysharedkeysharedkeysharedkey0000",
		baseURL,
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func newSearchServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.php" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{
			"header": {"status": 0, "user_id": "42", "account_type": "2", "short_remaining": 4, "long_remaining": 99, "results_returned": 1},
			"results": [{
				"header": {"similarity": "87.5", "index_id": 5, "index_name": "Index #5: Pixiv Images"},
				"data": {"title": "Example Work", "member_name": "artist", "member_id": 123, "ext_urls": ["https://www.pixiv.net/artworks/456"]}
			}]
		}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"version"}, "")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "saucebot "+version) {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected target path in output, got %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected error when config already exists")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowCommand(t *testing.T) {
	configPath := writeTestConfig(t, "https://saucenao.com")

	out, _, err := runCLI(t, []string{"config", "show"}, configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, configPath) {
		t.Fatalf("expected resolved path in output, got %q", out)
	}
	if strings.Contains(out, "sharedkeysharedkey") {
		t.Fatalf("api key printed unredacted: %q", out)
	}
	if !strings.Contains(out, "Guild daily limit") {
		t.Fatalf("expected settings table, got %q", out)
	}
}

func TestCacheStatsAndPurgeEmpty(t *testing.T) {
	configPath := writeTestConfig(t, "https://saucenao.com")

	out, _, err := runCLI(t, []string{"cache", "stats"}, configPath)
	if err != nil {
		t.Fatalf("cache stats: %v", err)
	}
	if !strings.Contains(out, "Cached results") {
		t.Fatalf("expected stats table, got %q", out)
	}

	out, _, err = runCLI(t, []string{"cache", "purge"}, configPath)
	if err != nil {
		t.Fatalf("cache purge: %v", err)
	}
	if !strings.Contains(out, "Removed 0 expired cache entries") {
		t.Fatalf("unexpected purge output: %q", out)
	}
}

func TestLookupCommand(t *testing.T) {
	server := newSearchServer(t)
	configPath := writeTestConfig(t, server.URL)

	out, _, err := runCLI(t, []string{"lookup", "https://example.com/image.jpg"}, configPath)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !strings.Contains(out, "Example Work") {
		t.Fatalf("expected match title in output, got %q", out)
	}
	if !strings.Contains(out, "87.50%") {
		t.Fatalf("expected similarity in output, got %q", out)
	}

	// Second run serves from cache and says so.
	out, _, err = runCLI(t, []string{"lookup", "https://example.com/image.jpg"}, configPath)
	if err != nil {
		t.Fatalf("cached lookup: %v", err)
	}
	if !strings.Contains(out, "cached") {
		t.Fatalf("expected cached marker, got %q", out)
	}

	// Both runs hit the query log.
	out, _, err = runCLI(t, []string{"queries", "count", "--user", "cli", "--guild", "cli"}, configPath)
	if err != nil {
		t.Fatalf("queries count: %v", err)
	}
	if !strings.Contains(out, "User cli: 2 queries") {
		t.Fatalf("unexpected user count: %q", out)
	}
	if !strings.Contains(out, "Guild cli: 2 queries") {
		t.Fatalf("unexpected guild count: %q", out)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	configPath := writeTestConfig(t, "https://saucenao.com")

	out, _, err := runCLI(t, []string{"test-notify"}, configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "No ntfy topic configured") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestQueriesCountRequiresIdentity(t *testing.T) {
	configPath := writeTestConfig(t, "https://saucenao.com")

	if _, _, err := runCLI(t, []string{"queries", "count"}, configPath); err == nil {
		t.Fatal("expected error when neither --user nor --guild is set")
	}
}

func TestAPIKeyCommands(t *testing.T) {
	server := newSearchServer(t)
	configPath := writeTestConfig(t, server.URL)

	if _, _, err := runCLI(t, []string{"apikey", "test", "short"}, configPath); err == nil {
		t.Fatal("expected malformed key to be rejected before any request")
	}

	key := "guildkeyguildkeyguildkeyguildkeyguild000"
	out, _, err := runCLI(t, []string{"apikey", "test", key}, configPath)
	if err != nil {
		t.Fatalf("apikey test: %v", err)
	}
	if !strings.Contains(out, "enhanced tier") {
		t.Fatalf("expected tier in output, got %q", out)
	}

	out, _, err = runCLI(t, []string{"apikey", "register", "guild-1", key}, configPath)
	if err != nil {
		t.Fatalf("apikey register: %v", err)
	}
	if !strings.Contains(out, "guild-1") {
		t.Fatalf("unexpected register output: %q", out)
	}

	out, _, err = runCLI(t, []string{"apikey", "show", "guild-1"}, configPath)
	if err != nil {
		t.Fatalf("apikey show: %v", err)
	}
	if strings.Contains(out, key) {
		t.Fatalf("registered key printed unredacted: %q", out)
	}
	if !strings.Contains(out, "guil") || !strings.Contains(out, "*") {
		t.Fatalf("expected redacted key, got %q", out)
	}

	out, _, err = runCLI(t, []string{"apikey", "show", "guild-2"}, configPath)
	if err != nil {
		t.Fatalf("apikey show missing: %v", err)
	}
	if !strings.Contains(out, "No key registered") {
		t.Fatalf("unexpected output for missing key: %q", out)
	}
}
