// Package saucenao implements a client for the SauceNAO reverse image
// search API (https://saucenao.com/user.php?page=search-api).
package saucenao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"saucebot/internal/sauce"
	"saucebot/internal/services"
)

const component = "saucenao"

// testImageURL is a stable image hosted by SauceNAO itself, used to
// validate API keys without burning a meaningful query.
const testImageURL = "https://saucenao.com/images/static_banner.gif"

// DefaultPriority orders indexes from most to least useful for lookups:
// anime, h-anime, pixiv, mangadex, gelbooru. Results from other indexes
// rank after these, by similarity.
var DefaultPriority = []int{IndexAnime, IndexHAnime, IndexPixiv, IndexMangaDex, IndexGelbooru}

var apiKeyRe = regexp.MustCompile(`^[a-zA-Z0-9]{40}$`)

// ValidKeyFormat reports whether key looks like a SauceNAO API key.
func ValidKeyFormat(key string) bool {
	return apiKeyRe.MatchString(key)
}

// SearchResponse holds the mapped results of one search call along with
// the remaining query allowances for the key used.
type SearchResponse struct {
	Results        []*sauce.Result
	ShortRemaining int
	LongRemaining  int
}

// Best returns the highest ranked result, or nil when nothing matched.
func (r *SearchResponse) Best() *sauce.Result {
	if r == nil || len(r.Results) == 0 {
		return nil
	}
	return r.Results[0]
}

// Searcher defines the SauceNAO operations used by the lookup service.
type Searcher interface {
	Search(ctx context.Context, apiKey, imageURL string) (*SearchResponse, error)
	Test(ctx context.Context, apiKey string) (*AccountInfo, error)
}

// Client provides access to the SauceNAO search API.
type Client struct {
	apiKey        string
	baseURL       string
	minSimilarity float64
	priority      []int
	httpClient    *http.Client
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

// WithPriority overrides the default index ordering.
func WithPriority(priority []int) Option {
	return func(c *Client) {
		if len(priority) > 0 {
			c.priority = priority
		}
	}
}

// New creates a SauceNAO client. apiKey is the shared fallback key used
// when a search does not supply its own.
func New(apiKey, baseURL string, minSimilarity float64, timeout time.Duration, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("saucenao api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("saucenao base url required")
	}
	if minSimilarity < 0 || minSimilarity > 100 {
		return nil, fmt.Errorf("min similarity %v out of range", minSimilarity)
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		apiKey:        apiKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		minSimilarity: minSimilarity,
		priority:      DefaultPriority,
		httpClient:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search looks up imageURL and returns matches at or above the minimum
// similarity, ordered by index priority then similarity. An empty
// apiKey falls back to the client's shared key.
func (c *Client) Search(ctx context.Context, apiKey, imageURL string) (*SearchResponse, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, services.Wrap(services.ErrInvalidImage, component, "search", "image url must not be empty", nil)
	}
	if apiKey == "" {
		apiKey = c.apiKey
	}

	envelope, err := c.call(ctx, "search", apiKey, imageURL, 8, false)
	if err != nil {
		return nil, err
	}

	response := &SearchResponse{
		ShortRemaining: envelope.Header.ShortRemaining,
		LongRemaining:  envelope.Header.LongRemaining,
	}
	for _, raw := range envelope.Results {
		result, err := mapResult(raw)
		if err != nil {
			continue
		}
		if result.Similarity < c.minSimilarity {
			continue
		}
		response.Results = append(response.Results, result)
	}
	sortResults(response.Results, c.priority)
	return response, nil
}

// Test validates an API key and reports the account tier behind it.
func (c *Client) Test(ctx context.Context, apiKey string) (*AccountInfo, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrBadKeyFormat, component, "test", "api key must not be empty", nil)
	}

	envelope, err := c.call(ctx, "test", apiKey, testImageURL, 1, true)
	if err != nil {
		return nil, err
	}

	accountType, _ := envelope.Header.AccountType.Int64()
	return &AccountInfo{
		UserID:         envelope.Header.UserID.String(),
		AccountType:    int(accountType),
		ShortRemaining: envelope.Header.ShortRemaining,
		LongRemaining:  envelope.Header.LongRemaining,
	}, nil
}

func (c *Client) call(ctx context.Context, operation, apiKey, imageURL string, numResults int, testMode bool) (*apiEnvelope, error) {
	endpoint, err := url.Parse(c.baseURL + "/search.php")
	if err != nil {
		return nil, services.Wrap(nil, component, operation, "parse saucenao url", err)
	}
	params := url.Values{}
	params.Set("output_type", "2")
	params.Set("api_key", apiKey)
	params.Set("url", imageURL)
	params.Set("numres", strconv.Itoa(numResults))
	if testMode {
		params.Set("testmode", "1")
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, services.Wrap(nil, component, operation, "build request", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, operation,
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&envelope)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, services.Wrap(services.ErrInvalidKey, component, operation, "api key rejected", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		marker := services.ErrShortLimit
		if strings.Contains(strings.ToLower(envelope.Header.Message), "daily") {
			marker = services.ErrDailyLimit
		}
		return nil, services.Wrap(marker, component, operation, "rate limited", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, services.Wrap(services.ErrAPIUnavailable, component, operation,
			fmt.Sprintf("saucenao returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	if decodeErr != nil {
		return nil, services.Wrap(services.ErrAPIUnavailable, component, operation, "decode saucenao response", decodeErr)
	}
	if err := classifyStatus(operation, &envelope.Header); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// classifyStatus maps the in-band status field. Negative values are
// client-side failures (bad key, unusable image), positive values are
// index-side failures on SauceNAO's end.
func classifyStatus(operation string, header *apiHeader) error {
	switch {
	case header.Status == 0:
		return nil
	case header.Status > 0:
		return services.Wrap(services.ErrAPIUnavailable, component, operation,
			fmt.Sprintf("saucenao index error %d: %s", header.Status, header.Message), nil)
	default:
		message := strings.ToLower(header.Message)
		if strings.Contains(message, "api key") || strings.Contains(message, "account") {
			return services.Wrap(services.ErrInvalidKey, component, operation, header.Message, nil)
		}
		return services.Wrap(services.ErrInvalidImage, component, operation, header.Message, nil)
	}
}

func mapResult(raw rawResult) (*sauce.Result, error) {
	similarity, err := raw.Header.Similarity.Float64()
	if err != nil {
		return nil, fmt.Errorf("parse similarity %q: %w", raw.Header.Similarity, err)
	}

	result := &sauce.Result{
		Kind:         kindForIndex(raw.Header.IndexID),
		Similarity:   similarity,
		ThumbnailURL: raw.Header.Thumbnail,
		Index:        raw.Header.IndexID,
		IndexName:    raw.Header.IndexName,
	}
	if len(raw.Data.ExtURLs) > 0 {
		result.SourceURL = raw.Data.ExtURLs[0]
	}

	switch result.Kind {
	case sauce.KindAnime, sauce.KindVideo:
		result.Title = raw.Data.Source
		result.Episode = raw.Data.Part
		result.Timestamp = raw.Data.EstTime
		result.AniDBID = raw.Data.AniDBAID
	case sauce.KindManga:
		result.Title = raw.Data.Source
		result.Chapter = raw.Data.Part
		result.AuthorName = firstNonEmpty(raw.Data.Author, raw.Data.Artist)
	case sauce.KindBooru:
		result.Title = firstNonEmpty(raw.Data.Title, raw.Data.Source)
		result.AuthorName = strings.Join(raw.Data.Creator, ", ")
		result.Characters = raw.Data.Characters
		result.Material = raw.Data.Material
	default:
		result.Title = firstNonEmpty(raw.Data.Title, raw.Data.Source)
		result.AuthorName = raw.Data.MemberName
		if raw.Data.MemberID.String() != "" && raw.Data.MemberName != "" {
			result.AuthorURL = "https://www.pixiv.net/users/" + raw.Data.MemberID.String()
		}
	}
	return result, nil
}

func kindForIndex(indexID int) sauce.Kind {
	switch indexID {
	case IndexAnime, IndexHAnime:
		return sauce.KindAnime
	case IndexShows, IndexMovies:
		return sauce.KindVideo
	case IndexMangaDex:
		return sauce.KindManga
	case IndexDanbooru, IndexGelbooru, IndexKonachan, IndexYandere:
		return sauce.KindBooru
	default:
		return sauce.KindGeneric
	}
}

// sortResults orders by index priority rank first, then similarity
// descending within a rank. The sort is stable so API order breaks ties.
func sortResults(results []*sauce.Result, priority []int) {
	rank := func(indexID int) int {
		for i, id := range priority {
			if id == indexID {
				return i
			}
		}
		return len(priority)
	}
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := rank(results[i].Index), rank(results[j].Index)
		if ri != rj {
			return ri < rj
		}
		return results[i].Similarity > results[j].Similarity
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
