package tmdb

// Result is one entry of a search, discover, or recommendations page.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	MediaType    string  `json:"media_type"`
	GenreIDs     []int   `json:"genre_ids"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// DisplayTitle returns the movie title or series name.
func (r Result) DisplayTitle() string {
	return firstNonEmpty(r.Title, r.Name)
}

// Date returns whichever of release_date or first_air_date is present.
func (r Result) Date() string {
	return firstNonEmpty(r.ReleaseDate, r.FirstAirDate)
}

// Page models the paginated list responses.
type Page struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Genre is a provider genre id and display name.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the /genre/{type}/list payload.
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// NamedEntity covers networks, creators, and other {id, name} references.
type NamedEntity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Details is the /{type}/{id} payload. Type-specific fields stay nil when the
// provider omits them.
type Details struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	Overview    string  `json:"overview"`
	Tagline     string  `json:"tagline"`
	Status      string  `json:"status"`
	PosterPath  string  `json:"poster_path"`
	Genres      []Genre `json:"genres"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`

	// Movies.
	ReleaseDate string `json:"release_date"`
	Runtime     *int   `json:"runtime"`
	Budget      *int64 `json:"budget"`
	Revenue     *int64 `json:"revenue"`

	// Series.
	FirstAirDate     string        `json:"first_air_date"`
	LastAirDate      string        `json:"last_air_date"`
	NumberOfSeasons  *int          `json:"number_of_seasons"`
	NumberOfEpisodes *int          `json:"number_of_episodes"`
	Networks         []NamedEntity `json:"networks"`
	CreatedBy        []NamedEntity `json:"created_by"`
}

// DisplayTitle returns the movie title or series name.
func (d Details) DisplayTitle() string {
	return firstNonEmpty(d.Title, d.Name)
}

// Date returns whichever of release_date or first_air_date is present.
func (d Details) Date() string {
	return firstNonEmpty(d.ReleaseDate, d.FirstAirDate)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
