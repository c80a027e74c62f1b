// Song search via the ytmusicapi proxy
//
// The proxy wraps the ytmusicapi Python library and exposes GET /api/search.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/samber/lo"
)

const (
	DefaultSearchURL   = "http://127.0.0.1:8000"
	DefaultSearchLimit = 15
)

type searchArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type searchAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// searchTrack is a single ytmusicapi song result as returned by the proxy.
type searchTrack struct {
	VideoID    string             `json:"videoId"`
	Title      string             `json:"title"`
	Artists    []searchArtist     `json:"artists"`
	Album      *searchAlbum       `json:"album"`
	Duration   string             `json:"duration"`
	Thumbnails []models.Thumbnail `json:"thumbnails"`
}

func (t searchTrack) result() models.SearchResult {
	r := models.SearchResult{
		VideoID:    t.VideoID,
		Title:      t.Title,
		Duration:   t.Duration,
		Thumbnails: t.Thumbnails,
		Artists: lo.FilterMap(t.Artists, func(a searchArtist, _ int) (string, bool) {
			return a.Name, a.Name != ""
		}),
	}
	if r.Title == "" {
		r.Title = "Unknown Title"
	}
	if t.Album != nil {
		r.Album = t.Album.Name
	}
	if r.Thumbnails == nil {
		r.Thumbnails = []models.Thumbnail{}
	}
	return r
}

// SearchService searches songs through the ytmusicapi proxy.
type SearchService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSearchService creates a search client for the proxy at baseURL ([DefaultSearchURL] when empty).
func NewSearchService(baseURL string, client *http.Client) *SearchService {
	if baseURL == "" {
		baseURL = DefaultSearchURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SearchService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (s *SearchService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrUpstreamSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrUpstreamSearch, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrUpstreamSearch, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrUpstreamSearch, err)
	}
	return nil
}

// Search returns up to limit songs matching query. Non-positive limits use [DefaultSearchLimit].
//
// Calls GET /api/search?q={query}&filter=songs&limit={limit} on the proxy.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", shared.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("filter", "songs")
	params.Set("limit", strconv.Itoa(limit))

	var tracks []searchTrack
	if err := s.doRequest(ctx, "/api/search?"+params.Encode(), &tracks); err != nil {
		return nil, err
	}

	results := lo.Map(tracks, func(t searchTrack, _ int) models.SearchResult { return t.result() })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchSongs adapts a [Searcher] into the artist search used by the recommendation engine.
func SearchSongs(s Searcher) func(ctx context.Context, artist string, limit int) ([]models.Song, error) {
	return func(ctx context.Context, artist string, limit int) ([]models.Song, error) {
		results, err := s.Search(ctx, artist, limit)
		if err != nil {
			return nil, err
		}
		return lo.Map(results, func(r models.SearchResult, _ int) models.Song { return r.Song() }), nil
	}
}
