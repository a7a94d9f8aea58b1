package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"filmscout/internal/services"
)

// Media types accepted by every endpoint.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// ValidMediaType reports whether value is one of the closed set {movie, tv}.
func ValidMediaType(value string) bool {
	return value == MediaMovie || value == MediaTV
}

func requireMediaType(operation, mediaType string) error {
	if ValidMediaType(mediaType) {
		return nil
	}
	return services.Wrap(services.ErrValidation, "tmdb", operation, fmt.Sprintf("type must be 'movie' or 'tv', got %q", mediaType), nil)
}

// Search queries /search/{type}. Zero year and empty language are omitted.
func (c *Client) Search(ctx context.Context, mediaType, query string, year int, language string) (*Page, error) {
	if err := requireMediaType("search", mediaType); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	if language = strings.TrimSpace(language); language != "" {
		params.Set("language", language)
	}
	return c.page(ctx, "/search/"+mediaType, params)
}

// Details fetches /{type}/{id}.
func (c *Client) Details(ctx context.Context, mediaType string, id int64) (*Details, error) {
	if err := requireMediaType("details", mediaType); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "details", "id must be positive", nil)
	}
	endpoint := fmt.Sprintf("/%s/%d", mediaType, id)
	payload, err := c.Dispatch(ctx, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return nil, err
	}
	var details Details
	if err := decodePayload(endpoint, payload, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Recommendations fetches /{type}/{id}/recommendations.
func (c *Client) Recommendations(ctx context.Context, mediaType string, id int64) (*Page, error) {
	if err := requireMediaType("recommendations", mediaType); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "recommendations", "id must be positive", nil)
	}
	return c.page(ctx, fmt.Sprintf("/%s/%d/recommendations", mediaType, id), nil)
}

// DiscoverQuery holds the /discover filters. Zero values are omitted.
type DiscoverQuery struct {
	MediaType string
	GenreIDs  []int
	Year      int
	Language  string
	SortBy    string
}

// Params renders the query string for /discover/{type}.
func (q DiscoverQuery) Params() url.Values {
	params := url.Values{}
	if len(q.GenreIDs) > 0 {
		ids := make([]string, len(q.GenreIDs))
		for i, id := range q.GenreIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("with_genres", strings.Join(ids, ","))
	}
	if q.Year > 0 {
		key := "primary_release_year"
		if q.MediaType == MediaTV {
			key = "first_air_date_year"
		}
		params.Set(key, strconv.Itoa(q.Year))
	}
	if language := strings.TrimSpace(q.Language); language != "" {
		params.Set("with_original_language", language)
	}
	if sortBy := strings.TrimSpace(q.SortBy); sortBy != "" {
		params.Set("sort_by", sortBy+".desc")
	}
	return params
}

// Discover queries /discover/{type}.
func (c *Client) Discover(ctx context.Context, query DiscoverQuery) (*Page, error) {
	if err := requireMediaType("discover", query.MediaType); err != nil {
		return nil, err
	}
	return c.page(ctx, "/discover/"+query.MediaType, query.Params())
}

// Genres fetches the genre catalog for a media type. Genre lists are
// effectively static, so the cache is always consulted.
func (c *Client) Genres(ctx context.Context, mediaType string) (*GenreList, error) {
	if err := requireMediaType("genres", mediaType); err != nil {
		return nil, err
	}
	endpoint := "/genre/" + mediaType + "/list"
	payload, err := c.Dispatch(ctx, http.MethodGet, endpoint, nil, true)
	if err != nil {
		return nil, err
	}
	var list GenreList
	if err := decodePayload(endpoint, payload, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) page(ctx context.Context, endpoint string, params url.Values) (*Page, error) {
	payload, err := c.Dispatch(ctx, http.MethodGet, endpoint, params, true)
	if err != nil {
		return nil, err
	}
	var page Page
	if err := decodePayload(endpoint, payload, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
