// Package animeids maps AniDB anime identifiers onto their AniList and
// MyAnimeList counterparts using the arm relations API.
package animeids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"saucebot/internal/sauce"
	"saucebot/internal/services"
)

const component = "animeids"

type relationEntry struct {
	AniDB       int64 `json:"anidb"`
	AniList     int64 `json:"anilist"`
	MyAnimeList int64 `json:"myanimelist"`
}

// Client resolves AniDB identifiers against a relations endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ sauce.IDResolver = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a relations client.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("animeids base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Resolve returns the cross-service identifiers for an AniDB entry.
// Unknown entries resolve to zero identifiers without error.
func (c *Client) Resolve(ctx context.Context, anidbID int64) (sauce.CrossIDs, error) {
	if anidbID <= 0 {
		return sauce.CrossIDs{}, services.Wrap(nil, component, "resolve", "anidb id must be positive", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/api/v2/ids")
	if err != nil {
		return sauce.CrossIDs{}, services.Wrap(nil, component, "resolve", "parse relations url", err)
	}
	params := url.Values{}
	params.Set("source", "anidb")
	params.Set("id", strconv.FormatInt(anidbID, 10))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return sauce.CrossIDs{}, services.Wrap(nil, component, "resolve", "build request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return sauce.CrossIDs{}, services.Wrap(services.ErrAPIUnavailable, component, "resolve", "execute request", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return sauce.CrossIDs{}, nil
	default:
		return sauce.CrossIDs{}, services.Wrap(services.ErrAPIUnavailable, component, "resolve",
			fmt.Sprintf("relations lookup returned %d", resp.StatusCode), nil)
	}

	var entry relationEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return sauce.CrossIDs{}, services.Wrap(services.ErrAPIUnavailable, component, "resolve", "decode relations response", err)
	}
	return sauce.CrossIDs{AniListID: entry.AniList, MALID: entry.MyAnimeList}, nil
}
