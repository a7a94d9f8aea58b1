package tools

import (
	"fmt"
	"strings"

	"filmscout/internal/services"
	"filmscout/internal/tmdb"
)

const (
	minYear = 1870
	maxYear = 2100
)

// Sort orders accepted by discover.
const (
	SortPopularity  = "popularity"
	SortVoteAverage = "vote_average"
)

// SearchArgs are the search_title arguments. Type defaults to movie.
type SearchArgs struct {
	Query    string `json:"query"`
	Type     string `json:"type,omitempty"`
	Year     int    `json:"year,omitempty"`
	Language string `json:"language,omitempty"`
}

// DetailsArgs are the get_details arguments.
type DetailsArgs struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// RecommendationArgs are the get_recommendations arguments.
type RecommendationArgs struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// DiscoverArgs are the discover arguments. Genres are names, resolved to
// provider ids before the query.
type DiscoverArgs struct {
	Type     string   `json:"type"`
	Genres   []string `json:"genre,omitempty"`
	Year     int      `json:"year,omitempty"`
	Language string   `json:"language,omitempty"`
	SortBy   string   `json:"sort_by,omitempty"`
}

// argumentError names the offending argument. Its text is safe to return to
// tool callers.
type argumentError struct {
	field   string
	message string
}

func (e *argumentError) Error() string {
	return e.field + " " + e.message
}

func invalid(tool, field, format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "tools", tool, "", &argumentError{
		field:   field,
		message: fmt.Sprintf(format, args...),
	})
}

func (a *SearchArgs) normalize() error {
	a.Query = strings.TrimSpace(a.Query)
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	a.Language = strings.TrimSpace(a.Language)
	if a.Query == "" {
		return invalid(ToolSearchTitle, "query", "must not be empty")
	}
	if a.Type == "" {
		a.Type = tmdb.MediaMovie
	}
	if err := checkType(ToolSearchTitle, a.Type); err != nil {
		return err
	}
	return checkYear(ToolSearchTitle, a.Year)
}

func (a *DetailsArgs) normalize() error {
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	if err := checkID(ToolGetDetails, a.ID); err != nil {
		return err
	}
	return checkType(ToolGetDetails, a.Type)
}

func (a *RecommendationArgs) normalize() error {
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	if err := checkID(ToolGetRecommendations, a.ID); err != nil {
		return err
	}
	return checkType(ToolGetRecommendations, a.Type)
}

func (a *DiscoverArgs) normalize() error {
	a.Type = strings.ToLower(strings.TrimSpace(a.Type))
	a.Language = strings.TrimSpace(a.Language)
	a.SortBy = strings.ToLower(strings.TrimSpace(a.SortBy))
	if err := checkType(ToolDiscover, a.Type); err != nil {
		return err
	}
	if err := checkYear(ToolDiscover, a.Year); err != nil {
		return err
	}
	switch a.SortBy {
	case "", SortPopularity, SortVoteAverage:
	default:
		return invalid(ToolDiscover, "sort_by", "must be 'popularity' or 'vote_average', got %q", a.SortBy)
	}
	genres := make([]string, 0, len(a.Genres))
	for _, name := range a.Genres {
		if name = strings.TrimSpace(name); name != "" {
			genres = append(genres, name)
		}
	}
	a.Genres = genres
	return nil
}

func checkType(tool, value string) error {
	if tmdb.ValidMediaType(value) {
		return nil
	}
	return invalid(tool, "type", "must be 'movie' or 'tv', got %q", value)
}

func checkID(tool string, id int64) error {
	if id > 0 {
		return nil
	}
	return invalid(tool, "id", "must be a positive catalog id, got %d", id)
}

func checkYear(tool string, year int) error {
	if year == 0 || (year >= minYear && year <= maxYear) {
		return nil
	}
	return invalid(tool, "year", "must be between %d and %d, got %d", minYear, maxYear, year)
}
