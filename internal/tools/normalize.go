package tools

import (
	"strconv"
	"strings"

	"filmscout/internal/tmdb"
)

const (
	searchLimit          = 10
	recommendationLimit  = 10
	discoverLimit        = 20
	highlyRatedThreshold = 7.5
	maxSharedGenres      = 2

	unknownTitle    = "Unknown"
	missingOverview = "No overview available"
)

// NormalizedTitle is the common shape returned by search and discover.
type NormalizedTitle struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Year       *int    `json:"year,omitempty"`
	Rating     float64 `json:"rating"`
	Overview   string  `json:"overview"`
	PosterPath *string `json:"poster_path,omitempty"`
}

// NormalizedDetails extends NormalizedTitle with descriptive and
// type-specific fields. Movie fields are empty for series and vice versa.
type NormalizedDetails struct {
	NormalizedTitle
	Genres    []string `json:"genres"`
	VoteCount int64    `json:"vote_count"`
	Tagline   *string  `json:"tagline,omitempty"`
	Status    *string  `json:"status,omitempty"`

	ReleaseDate *string `json:"release_date,omitempty"`
	Runtime     *int    `json:"runtime,omitempty"`
	Budget      *int64  `json:"budget,omitempty"`
	Revenue     *int64  `json:"revenue,omitempty"`

	FirstAirDate *string  `json:"first_air_date,omitempty"`
	LastAirDate  *string  `json:"last_air_date,omitempty"`
	SeasonCount  *int     `json:"number_of_seasons,omitempty"`
	EpisodeCount *int     `json:"number_of_episodes,omitempty"`
	Networks     []string `json:"networks,omitempty"`
	Creators     []string `json:"created_by,omitempty"`
}

// RecommendationItem is one recommended title with a derived reason.
type RecommendationItem struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Year   *int   `json:"year,omitempty"`
	Reason string `json:"reason"`
}

// yearFromDate takes the first four characters of a provider date. Short,
// absent, or non-numeric dates yield nil.
func yearFromDate(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func titleOrUnknown(title string) string {
	if title == "" {
		return unknownTitle
	}
	return title
}

func normalizeTitle(r tmdb.Result, mediaType string) NormalizedTitle {
	return NormalizedTitle{
		ID:         r.ID,
		Title:      titleOrUnknown(r.DisplayTitle()),
		Type:       mediaType,
		Year:       yearFromDate(r.Date()),
		Rating:     r.VoteAverage,
		Overview:   r.Overview,
		PosterPath: optionalString(r.PosterPath),
	}
}

func normalizeTitles(results []tmdb.Result, mediaType string, limit int) []NormalizedTitle {
	if len(results) > limit {
		results = results[:limit]
	}
	out := make([]NormalizedTitle, 0, len(results))
	for _, r := range results {
		out = append(out, normalizeTitle(r, mediaType))
	}
	return out
}

func normalizeDetails(d *tmdb.Details, mediaType string) NormalizedDetails {
	overview := d.Overview
	if strings.TrimSpace(overview) == "" {
		overview = missingOverview
	}
	genres := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		genres = append(genres, g.Name)
	}

	out := NormalizedDetails{
		NormalizedTitle: NormalizedTitle{
			ID:         d.ID,
			Title:      titleOrUnknown(d.DisplayTitle()),
			Type:       mediaType,
			Year:       yearFromDate(d.Date()),
			Rating:     d.VoteAverage,
			Overview:   overview,
			PosterPath: optionalString(d.PosterPath),
		},
		Genres:    genres,
		VoteCount: d.VoteCount,
		Tagline:   optionalString(d.Tagline),
		Status:    optionalString(d.Status),
	}

	if mediaType == tmdb.MediaMovie {
		out.ReleaseDate = optionalString(d.ReleaseDate)
		out.Runtime = d.Runtime
		out.Budget = d.Budget
		out.Revenue = d.Revenue
		return out
	}
	out.FirstAirDate = optionalString(d.FirstAirDate)
	out.LastAirDate = optionalString(d.LastAirDate)
	out.SeasonCount = d.NumberOfSeasons
	out.EpisodeCount = d.NumberOfEpisodes
	out.Networks = entityNames(d.Networks)
	out.Creators = entityNames(d.CreatedBy)
	return out
}

func entityNames(entities []tmdb.NamedEntity) []string {
	if len(entities) == 0 {
		return nil
	}
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names
}

// recommendationReason explains a candidate relative to its source title:
//
//	Similar to Inception (shared Action, Science Fiction genres, highly rated)
//
// Shared genres are listed in the source's order, at most two of them.
func recommendationReason(source *tmdb.Details, candidate tmdb.Result) string {
	reason := "Similar to " + titleOrUnknown(source.DisplayTitle())

	candidateGenres := make(map[int]struct{}, len(candidate.GenreIDs))
	for _, id := range candidate.GenreIDs {
		candidateGenres[id] = struct{}{}
	}
	var shared []string
	for _, g := range source.Genres {
		if _, ok := candidateGenres[g.ID]; ok && len(shared) < maxSharedGenres {
			shared = append(shared, g.Name)
		}
	}

	var qualifiers []string
	if len(shared) > 0 {
		qualifiers = append(qualifiers, "shared "+strings.Join(shared, ", ")+" genres")
	}
	if candidate.VoteAverage >= highlyRatedThreshold {
		qualifiers = append(qualifiers, "highly rated")
	}
	if len(qualifiers) == 0 {
		return reason
	}
	return reason + " (" + strings.Join(qualifiers, ", ") + ")"
}

func normalizeRecommendations(source *tmdb.Details, results []tmdb.Result) []RecommendationItem {
	if len(results) > recommendationLimit {
		results = results[:recommendationLimit]
	}
	out := make([]RecommendationItem, 0, len(results))
	for _, r := range results {
		out = append(out, RecommendationItem{
			ID:     r.ID,
			Title:  titleOrUnknown(r.DisplayTitle()),
			Year:   yearFromDate(r.Date()),
			Reason: recommendationReason(source, r),
		})
	}
	return out
}
