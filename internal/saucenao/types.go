package saucenao

import (
	"encoding/json"
	"strings"
)

// SauceNAO index identifiers for the databases we prioritize.
const (
	IndexPixiv    = 5
	IndexDanbooru = 9
	IndexAnime    = 21
	IndexHAnime   = 22
	IndexShows    = 23
	IndexMovies   = 24
	IndexGelbooru = 25
	IndexKonachan = 26
	IndexYandere  = 27
	IndexMangaDex = 37
)

// Account tiers reported by the API.
const (
	AccountUnregistered = 0
	AccountFree         = 1
	AccountEnhanced     = 2
)

// AccountInfo describes the API key used for a request.
type AccountInfo struct {
	UserID         string
	AccountType    int
	ShortRemaining int
	LongRemaining  int
}

// Enhanced reports whether the key belongs to a paid account tier.
func (a *AccountInfo) Enhanced() bool {
	return a.AccountType >= AccountEnhanced
}

type apiEnvelope struct {
	Header  apiHeader   `json:"header"`
	Results []rawResult `json:"results"`
}

type apiHeader struct {
	Status          int         `json:"status"`
	UserID          json.Number `json:"user_id"`
	AccountType     json.Number `json:"account_type"`
	ShortRemaining  int         `json:"short_remaining"`
	LongRemaining   int         `json:"long_remaining"`
	ResultsReturned int         `json:"results_returned"`
	Message         string      `json:"message"`
}

type rawResult struct {
	Header rawHeader `json:"header"`
	Data   rawData   `json:"data"`
}

type rawHeader struct {
	Similarity json.Number `json:"similarity"`
	Thumbnail  string      `json:"thumbnail"`
	IndexID    int         `json:"index_id"`
	IndexName  string      `json:"index_name"`
}

type rawData struct {
	ExtURLs    []string    `json:"ext_urls"`
	Title      string      `json:"title"`
	MemberName string      `json:"member_name"`
	MemberID   json.Number `json:"member_id"`
	Source     string      `json:"source"`
	Part       string      `json:"part"`
	EstTime    string      `json:"est_time"`
	AniDBAID   int64       `json:"anidb_aid"`
	Author     string      `json:"author"`
	Artist     string      `json:"artist"`
	Creator    flexList    `json:"creator"`
	Characters flexList    `json:"characters"`
	Material   flexList    `json:"material"`
}

// flexList accepts either a comma separated string or a JSON array;
// booru indexes are inconsistent about which form they return.
type flexList []string

func (f *flexList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*f = splitList(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make([]string, 0, len(many))
	for _, item := range many {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	*f = out
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
