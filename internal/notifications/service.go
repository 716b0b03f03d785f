package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"saucebot/internal/config"
)

const userAgent = "Saucebot-Go/0.1.0"

// Service defines the notification surface exposed to bot components.
type Service interface {
	NotifyStarted(ctx context.Context) error
	NotifyStopped(ctx context.Context) error
	NotifyKeyRejected(ctx context.Context, guildID string) error
	NotifyQuotaExhausted(ctx context.Context, guildID string) error
	NotifyCachePurged(ctx context.Context, removed int64) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyStarted(ctx context.Context) error {
	data := payload{
		title:   "Saucebot - Started",
		message: "Bot is online and accepting lookups",
		tags:    []string{"saucebot", "lifecycle", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStopped(ctx context.Context) error {
	data := payload{
		title:   "Saucebot - Stopped",
		message: "Bot is shutting down",
		tags:    []string{"saucebot", "lifecycle", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyKeyRejected(ctx context.Context, guildID string) error {
	guildID = strings.TrimSpace(guildID)
	data := payload{
		title:    "Saucebot - API Key Rejected",
		message:  fmt.Sprintf("SauceNAO rejected the API key used for guild %s", guildID),
		tags:     []string{"saucebot", "apikey", "rejected"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQuotaExhausted(ctx context.Context, guildID string) error {
	guildID = strings.TrimSpace(guildID)
	data := payload{
		title:   "Saucebot - Quota Exhausted",
		message: fmt.Sprintf("Guild %s has exhausted the shared daily query quota", guildID),
		tags:    []string{"saucebot", "quota", "exhausted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCachePurged(ctx context.Context, removed int64) error {
	data := payload{
		title:    "Saucebot - Cache Purged",
		message:  fmt.Sprintf("Removed %d expired cache entries", removed),
		tags:     []string{"saucebot", "cache", "purged"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Saucebot - Error",
		message:  builder.String(),
		tags:     []string{"saucebot", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Saucebot - Test",
		message:  "Notification system test",
		tags:     []string{"saucebot", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyStarted(context.Context) error                { return nil }
func (noopService) NotifyStopped(context.Context) error                { return nil }
func (noopService) NotifyKeyRejected(context.Context, string) error    { return nil }
func (noopService) NotifyQuotaExhausted(context.Context, string) error { return nil }
func (noopService) NotifyCachePurged(context.Context, int64) error     { return nil }
func (noopService) NotifyError(context.Context, error, string) error   { return nil }
func (noopService) TestNotification(context.Context) error             { return nil }
