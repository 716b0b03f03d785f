// Package tracemoe implements a client for the trace.moe anime scene
// search API (https://soruly.github.io/trace.moe-api/).
package tracemoe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"saucebot/internal/services"
)

const component = "tracemoe"

// previewSizeLimit caps how much preview video we are willing to buffer.
const previewSizeLimit = 16 << 20

// Match is a single scene match returned by a search.
type Match struct {
	AnilistID  int64
	Title      string
	IsAdult    bool
	Episode    json.Number
	Similarity float64
	VideoURL   string
	ImageURL   string
}

// SearchResponse holds the matches of one search call.
type SearchResponse struct {
	Matches []Match
}

// Best returns the strongest match, or nil when nothing was found.
func (r *SearchResponse) Best() *Match {
	if r == nil || len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// Searcher defines the trace.moe operations used by preview generation.
type Searcher interface {
	Search(ctx context.Context, imageURL string) (*SearchResponse, error)
	VideoPreview(ctx context.Context, match *Match) ([]byte, error)
}

// Client provides access to the trace.moe API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

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

// New creates a trace.moe client. The token raises the account's rate
// limits and may be empty for anonymous access.
func New(token, baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tracemoe base url required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &Client{
		token:      strings.TrimSpace(token),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type rawAnilist struct {
	ID    int64 `json:"id"`
	Title struct {
		Romaji  string `json:"romaji"`
		English string `json:"english"`
	} `json:"title"`
	IsAdult bool `json:"isAdult"`
}

// anilistField tolerates both response shapes: a bare numeric id, or
// the expanded object returned when anilistInfo is requested.
type anilistField struct {
	rawAnilist
}

func (a *anilistField) UnmarshalJSON(data []byte) error {
	var id int64
	if err := json.Unmarshal(data, &id); err == nil {
		a.ID = id
		return nil
	}
	return json.Unmarshal(data, &a.rawAnilist)
}

type rawMatch struct {
	Anilist    anilistField `json:"anilist"`
	Episode    json.Number  `json:"episode"`
	Similarity float64      `json:"similarity"`
	Video      string       `json:"video"`
	Image      string       `json:"image"`
}

type rawResponse struct {
	Error  string     `json:"error"`
	Result []rawMatch `json:"result"`
}

// Search looks up the scene behind imageURL. Matches arrive ordered by
// similarity, strongest first.
func (c *Client) Search(ctx context.Context, imageURL string) (*SearchResponse, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, services.Wrap(services.ErrInvalidImage, component, "search", "image url must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, services.Wrap(nil, component, "search", "parse tracemoe url", err)
	}
	params := url.Values{}
	params.Set("url", imageURL)
	params.Set("anilistInfo", "")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(nil, component, "search", "build request", err)
	}
	if c.token != "" {
		req.Header.Set("x-trace-key", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "search", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "search",
			fmt.Sprintf("tracemoe search returned %d", resp.StatusCode), nil)
	}

	var payload rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "search", "decode tracemoe response", err)
	}
	if payload.Error != "" {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "search", payload.Error, nil)
	}

	response := &SearchResponse{}
	for _, raw := range payload.Result {
		response.Matches = append(response.Matches, Match{
			AnilistID:  raw.Anilist.ID,
			Title:      firstNonEmpty(raw.Anilist.Title.Romaji, raw.Anilist.Title.English),
			IsAdult:    raw.Anilist.IsAdult,
			Episode:    raw.Episode,
			Similarity: raw.Similarity,
			VideoURL:   raw.Video,
			ImageURL:   raw.Image,
		})
	}
	return response, nil
}

// VideoPreview downloads the muted scene clip for a match.
func (c *Client) VideoPreview(ctx context.Context, match *Match) ([]byte, error) {
	if match == nil || match.VideoURL == "" {
		return nil, services.Wrap(nil, component, "preview", "match has no video url", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, match.VideoURL, nil)
	if err != nil {
		return nil, services.Wrap(nil, component, "preview", "build request", err)
	}
	if c.token != "" {
		req.Header.Set("x-trace-key", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "preview", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "preview",
			fmt.Sprintf("tracemoe preview returned %d", resp.StatusCode), nil)
	}

	clip, err := io.ReadAll(io.LimitReader(resp.Body, previewSizeLimit+1))
	if err != nil {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, "preview", "read preview body", err)
	}
	if len(clip) > previewSizeLimit {
		return nil, services.Wrap(nil, component, "preview", "preview exceeds size limit", nil)
	}
	return clip, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
