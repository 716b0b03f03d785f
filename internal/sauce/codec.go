package sauce

import (
	"encoding/json"
	"fmt"
)

// The cache stores each result as a variant tag plus two JSON documents
// mirroring the remote wire split: a header with ranking metadata and a
// payload with the variant fields. Encode and Decode must round-trip a Result
// without loss.

type encodedHeader struct {
	Similarity float64 `json:"similarity"`
	Thumbnail  string  `json:"thumbnail"`
	IndexID    int     `json:"index_id"`
	IndexName  string  `json:"index_name"`
}

type encodedPayload struct {
	Title      string    `json:"title,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	AuthorURL  string    `json:"author_url,omitempty"`
	SourceURL  string    `json:"source_url,omitempty"`
	Episode    string    `json:"episode,omitempty"`
	Timestamp  string    `json:"timestamp,omitempty"`
	AniDBID    int64     `json:"anidb_id,omitempty"`
	Chapter    string    `json:"chapter,omitempty"`
	Characters []string  `json:"characters,omitempty"`
	Material   []string  `json:"material,omitempty"`
	CrossIDs   *CrossIDs `json:"cross_ids,omitempty"`
}

// Encode serializes a result into its cacheable parts.
func Encode(r *Result) (kind Kind, header, payload []byte, err error) {
	if r == nil {
		return "", nil, nil, fmt.Errorf("encode: nil result")
	}
	if !ValidKind(r.Kind) {
		return "", nil, nil, fmt.Errorf("encode: unknown result kind %q", r.Kind)
	}
	header, err = json.Marshal(encodedHeader{
		Similarity: r.Similarity,
		Thumbnail:  r.ThumbnailURL,
		IndexID:    r.Index,
		IndexName:  r.IndexName,
	})
	if err != nil {
		return "", nil, nil, fmt.Errorf("encode header: %w", err)
	}
	payload, err = json.Marshal(encodedPayload{
		Title:      r.Title,
		AuthorName: r.AuthorName,
		AuthorURL:  r.AuthorURL,
		SourceURL:  r.SourceURL,
		Episode:    r.Episode,
		Timestamp:  r.Timestamp,
		AniDBID:    r.AniDBID,
		Chapter:    r.Chapter,
		Characters: r.Characters,
		Material:   r.Material,
		CrossIDs:   r.ids,
	})
	if err != nil {
		return "", nil, nil, fmt.Errorf("encode payload: %w", err)
	}
	return r.Kind, header, payload, nil
}

// Decode reconstructs a result from its cached parts.
func Decode(kind Kind, header, payload []byte) (*Result, error) {
	if !ValidKind(kind) {
		return nil, fmt.Errorf("decode: unknown result kind %q", kind)
	}
	var h encodedHeader
	if err := json.Unmarshal(header, &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	var p encodedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &Result{
		Kind:         kind,
		Title:        p.Title,
		AuthorName:   p.AuthorName,
		AuthorURL:    p.AuthorURL,
		SourceURL:    p.SourceURL,
		ThumbnailURL: h.Thumbnail,
		Similarity:   h.Similarity,
		Index:        h.IndexID,
		IndexName:    h.IndexName,
		Episode:      p.Episode,
		Timestamp:    p.Timestamp,
		AniDBID:      p.AniDBID,
		Chapter:      p.Chapter,
		Characters:   p.Characters,
		Material:     p.Material,
		ids:          p.CrossIDs,
	}, nil
}
